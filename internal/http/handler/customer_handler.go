package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type CustomerHandler struct {
	store  *service.RecordStore
	logger *zap.Logger
}

func NewCustomerHandler(store *service.RecordStore, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{store: store, logger: logger}
}

// List returns all customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListCustomers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "list customers", err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

// GetByID returns a single customer with all nested collections
func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, "get customer", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Update patches contact data
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.store.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "update customer", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// TakeHighlight returns and clears the id of the most recently promoted customer
func (h *CustomerHandler) TakeHighlight(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.TakeHighlight(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "read highlight", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.HighlightResponse{CustomerID: id})
}

// History returns the customer's history, oldest first
func (h *CustomerHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.GetHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, "get history", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// AddHistory appends a manual history entry
func (h *CustomerHandler) AddHistory(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		respondWithError(w, http.StatusBadRequest, "message is required")
		return
	}
	entry, err := h.store.AddHistory(r.Context(), chi.URLParam(r, "id"), req.Type, req.Message)
	if err != nil {
		respondServiceError(w, h.logger, "add history", err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}
