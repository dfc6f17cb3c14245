package handler

import (
	"net/http"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	store  *service.RecordStore
	logger *zap.Logger
}

func NewLeadHandler(store *service.RecordStore, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{store: store, logger: logger}
}

// List returns all leads in insertion order
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.store.ListLeads(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "list leads", err)
		return
	}
	respondJSON(w, http.StatusOK, leads)
}

// Create adds a lead. Duplicate emails yield 409.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lead, err := h.store.AddLead(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, "add lead", err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

// Delete removes the lead at {index}
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	if err := h.store.DeleteLead(r.Context(), idx); err != nil {
		respondServiceError(w, h.logger, "delete lead", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Promote converts the lead at {index} into a customer
func (h *LeadHandler) Promote(w http.ResponseWriter, r *http.Request) {
	idx, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	id, err := h.store.PromoteLeadToCustomer(r.Context(), idx)
	if err != nil {
		respondServiceError(w, h.logger, "promote lead", err)
		return
	}
	respondJSON(w, http.StatusCreated, domain.PromoteLeadResponse{CustomerID: id})
}
