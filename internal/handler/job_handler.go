package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hirelab/crucible/internal/event"
	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/service"
)

// JobHandler serves job status, logs, and listings
type JobHandler struct {
	manager *service.Manager
	bus     *event.Bus
}

// NewJobHandler creates a new job handler
func NewJobHandler(manager *service.Manager, bus *event.Bus) *JobHandler {
	return &JobHandler{
		manager: manager,
		bus:     bus,
	}
}

// StatusResponse represents a job status snapshot
type StatusResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogsResponse represents a job's accumulated log lines
type LogsResponse struct {
	JobID  string           `json:"job_id"`
	Offset int              `json:"offset"`
	Count  int              `json:"count"`
	Logs   []model.LogEntry `json:"logs"`
}

// ListResponse represents the job listing
type ListResponse struct {
	Count int                `json:"count"`
	Jobs  []model.JobSummary `json:"jobs"`
}

// Status handles GET /api/status/{job_id}
func (h *JobHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/status/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := h.manager.Status(jobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	})
}

// Logs handles GET /api/logs/{job_id}?offset=N and delegates
// /api/logs/{job_id}/stream to the SSE handler
func (h *JobHandler) Logs(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/logs/")

	if strings.HasSuffix(path, "/stream") {
		h.stream(w, r, strings.TrimSuffix(path, "/stream"))
		return
	}

	if path == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	offset := parseQueryInt(r, "offset", 0)
	entries, err := h.manager.Logs(path, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LogsResponse{
		JobID:  path,
		Offset: offset,
		Count:  len(entries),
		Logs:   entries,
	})
}

// List handles GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.manager.List()

	writeJSON(w, http.StatusOK, ListResponse{
		Count: len(jobs),
		Jobs:  jobs,
	})
}

// stream serves GET /api/logs/{job_id}/stream as Server-Sent Events:
// the accumulated log lines are replayed, then live events follow until
// the job reaches a terminal state or the client disconnects.
func (h *JobHandler) stream(w http.ResponseWriter, r *http.Request, jobID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Subscribe before snapshotting so no event falls between the two.
	events, cancel := h.bus.Subscribe(jobID)
	defer cancel()

	job, err := h.manager.Status(jobID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The stream outlives the server's write timeout for long jobs.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for _, entry := range job.Logs {
		writeSSE(w, event.TypeLog, entry.Line)
	}
	writeSSE(w, event.TypeStatus, job.Status)
	flusher.Flush()

	if job.Terminal() {
		return
	}

	for {
		select {
		case evt, open := <-events:
			if !open {
				return
			}
			writeSSE(w, evt.Type, evt.Data)
			flusher.Flush()
			if evt.Type == event.TypeStatus && isTerminalStatus(evt.Data) {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, eventType, data string) {
	fmt.Fprintf(w, "event: %s\n", eventType)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func isTerminalStatus(status string) bool {
	return status == model.StatusCompleted || status == model.StatusFailed
}
