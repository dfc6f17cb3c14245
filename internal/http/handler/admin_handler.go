package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type AdminHandler struct {
	store    *service.RecordStore
	exporter *service.ExportService
	logger   *zap.Logger
}

func NewAdminHandler(store *service.RecordStore, exporter *service.ExportService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, exporter: exporter, logger: logger}
}

// ExportCustomers stores a fresh CSV export and streams it back as an attachment
func (h *AdminHandler) ExportCustomers(w http.ResponseWriter, r *http.Request) {
	res, err := h.exporter.ExportCustomersCSV(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "export customers", err)
		return
	}
	h.serveExport(w, r, res.Filename)
}

// DownloadExport streams a previously stored export
func (h *AdminHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, chi.URLParam(r, "filename"))
}

func (h *AdminHandler) serveExport(w http.ResponseWriter, r *http.Request, name string) {
	rc, err := h.exporter.OpenExport(r.Context(), name)
	if err != nil {
		respondServiceError(w, h.logger, "open export", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", service.CSVContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("export download interrupted", zap.String("filename", name), zap.Error(err))
	}
}

// Reset wipes all records. Requires confirm=true.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		respondWithError(w, http.StatusBadRequest, "Reset requires confirm=true")
		return
	}
	if err := h.store.ResetAll(r.Context()); err != nil {
		respondServiceError(w, h.logger, "reset store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Normalize runs a normalization pass immediately
func (h *AdminHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	changed, err := h.store.NormalizeAllCustomers(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, "normalize customers", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"rewritten": changed})
}

// BillDue invoices every subscription due on or before today
func (h *AdminHandler) BillDue(w http.ResponseWriter, r *http.Request) {
	billed, err := h.store.BillDueSubscriptions(r.Context(), time.Now())
	if err != nil {
		respondServiceError(w, h.logger, "bill subscriptions", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"invoicesCreated": billed})
}
