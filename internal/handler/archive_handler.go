package handler

import (
	"net/http"
	"strings"

	"github.com/hirelab/crucible/internal/database"
	"github.com/hirelab/crucible/internal/model"
)

// ArchiveHandler serves persisted terminal jobs. The repository is nil
// when archiving is disabled.
type ArchiveHandler struct {
	repo *database.ArchiveRepository
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(repo *database.ArchiveRepository) *ArchiveHandler {
	return &ArchiveHandler{
		repo: repo,
	}
}

// ArchiveListResponse represents the archived job listing
type ArchiveListResponse struct {
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Jobs  []model.Job `json:"jobs"`
}

// List handles GET /api/archive
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotFound, "job archive is disabled")
		return
	}

	page := parseQueryInt(r, "page", 1)
	limit := parseQueryInt(r, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	jobs, total, err := h.repo.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ArchiveListResponse{
		Total: total,
		Page:  page,
		Limit: limit,
		Jobs:  jobs,
	})
}

// Get handles GET /api/archive/{job_id}
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotFound, "job archive is disabled")
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/archive/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := h.repo.Get(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}
