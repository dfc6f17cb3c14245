package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type OfferHandler struct {
	store  *service.RecordStore
	logger *zap.Logger
}

func NewOfferHandler(store *service.RecordStore, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{store: store, logger: logger}
}

// Create adds an offer to a customer
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	offer, err := h.store.AddOfferToCustomer(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "create offer", err)
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

// Accept marks an offer as accepted, optionally with a signature
func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req domain.AcceptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	offer, err := h.store.SetOfferAccepted(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "offerId"), req.Signature)
	if err != nil {
		respondServiceError(w, h.logger, "accept offer", err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// Invoices lists invoices linked to an offer
func (h *OfferHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.store.GetInvoicesByOffer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "offerId"))
	if err != nil {
		respondServiceError(w, h.logger, "list offer invoices", err)
		return
	}
	respondJSON(w, http.StatusOK, invoices)
}

// CreateProject starts a project from an offer with default milestones
func (h *OfferHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.AddProjectFromOffer(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "offerId"))
	if err != nil {
		respondServiceError(w, h.logger, "create project from offer", err)
		return
	}
	respondJSON(w, http.StatusCreated, project)
}
