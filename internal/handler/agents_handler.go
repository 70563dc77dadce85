package handler

import (
	"net/http"

	"github.com/hirelab/crucible/internal/pipeline"
)

// AgentsHandler serves the crew roster
type AgentsHandler struct {
	manifest *pipeline.Manifest
}

// NewAgentsHandler creates a new agents handler
func NewAgentsHandler(manifest *pipeline.Manifest) *AgentsHandler {
	return &AgentsHandler{
		manifest: manifest,
	}
}

// AgentsResponse represents the crew roster response
type AgentsResponse struct {
	Count  int              `json:"count"`
	Agents []pipeline.Agent `json:"agents"`
}

// List handles GET /api/agents
func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AgentsResponse{
		Count:  len(h.manifest.Agents),
		Agents: h.manifest.Agents,
	})
}
