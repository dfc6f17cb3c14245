package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	store  *service.RecordStore
	logger *zap.Logger
}

func NewSubscriptionHandler(store *service.RecordStore, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{store: store, logger: logger}
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.ListSubscriptions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, "list subscriptions", err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.store.AddSubscriptionToCustomer(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "create subscription", err)
		return
	}
	respondJSON(w, http.StatusCreated, sub)
}

func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.store.UpdateSubscription(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subId"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "update subscription", err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req domain.AcceptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.store.SetSubscriptionAccepted(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subId"), req.Signature)
	if err != nil {
		respondServiceError(w, h.logger, "accept subscription", err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// Invoice bills the subscription for its current due month
func (h *SubscriptionHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvoiceFromSubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.store.CreateInvoiceFromSubscription(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subId"), req.NoteExtra)
	if err != nil {
		respondServiceError(w, h.logger, "invoice subscription", err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
