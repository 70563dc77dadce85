package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/service"
)

// GenerateHandler handles assessment generation submissions
type GenerateHandler struct {
	manager *service.Manager
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(manager *service.Manager) *GenerateHandler {
	return &GenerateHandler{
		manager: manager,
	}
}

// AsyncResponse represents the submission acknowledgement
type AsyncResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Generate handles POST /api/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var params model.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	jobID, err := h.manager.Submit(r.Context(), params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	response := AsyncResponse{
		JobID:   jobID,
		Status:  model.StatusQueued,
		Message: "Assessment generation queued successfully",
	}

	writeJSON(w, http.StatusAccepted, response)
}
