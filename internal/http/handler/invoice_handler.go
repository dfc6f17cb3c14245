package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	store  *service.RecordStore
	logger *zap.Logger
}

func NewInvoiceHandler(store *service.RecordStore, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{store: store, logger: logger}
}

// Create issues a numbered invoice
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.store.AddInvoiceToCustomer(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "create invoice", err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// SetStatus switches an invoice between open and paid
func (h *InvoiceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.SetInvoiceStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.store.SetInvoiceStatus(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "invoiceId"), req.Status)
	if err != nil {
		respondServiceError(w, h.logger, "set invoice status", err)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}
