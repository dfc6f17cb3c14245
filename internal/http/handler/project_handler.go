package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/minicrm/internal/domain"
	"github.com/straye-as/minicrm/internal/service"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	store  *service.RecordStore
	logger *zap.Logger
}

func NewProjectHandler(store *service.RecordStore, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, logger: logger}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.store.AddProjectToCustomer(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "create project", err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.store.UpdateProject(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "projectId"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "update project", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMilestoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.store.AddProjectMilestone(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "projectId"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "add milestone", err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// SetMilestoneDone checks off or reopens a milestone
func (h *ProjectHandler) SetMilestoneDone(w http.ResponseWriter, r *http.Request) {
	var req domain.SetMilestoneDoneRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.store.ToggleMilestoneDone(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "projectId"), chi.URLParam(r, "milestoneId"), req.Done)
	if err != nil {
		respondServiceError(w, h.logger, "update milestone", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (h *ProjectHandler) AddFile(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.store.AddProjectFile(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "projectId"), &req)
	if err != nil {
		respondServiceError(w, h.logger, "add project file", err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}
