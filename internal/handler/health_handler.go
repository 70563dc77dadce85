package handler

import (
	"net/http"
	"time"

	"github.com/hirelab/crucible/internal/database"
)

// HealthHandler handles service health and readiness checks. The archive
// connection is optional; when disabled it is reported as such and never
// blocks readiness.
type HealthHandler struct {
	db        *database.MongoDB
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. db is nil when the
// archive is disabled.
func NewHealthHandler(db *database.MongoDB, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	Archive       string `json:"archive"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Ready   bool   `json:"ready"`
	Archive string `json:"archive"`
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Archive:       h.archiveStatus(r),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	writeJSON(w, http.StatusOK, response)
}

// Ready returns the service readiness status
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	archiveStatus := h.archiveStatus(r)

	ready := archiveStatus != "disconnected"
	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadyResponse{
		Ready:   ready,
		Archive: archiveStatus,
	})
}

func (h *HealthHandler) archiveStatus(r *http.Request) string {
	if h.db == nil {
		return "disabled"
	}
	if err := h.db.Client.Ping(r.Context(), nil); err != nil {
		return "disconnected"
	}
	return "connected"
}
