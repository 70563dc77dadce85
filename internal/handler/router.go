package handler

import (
	"net/http"

	"github.com/hirelab/crucible/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	generateHandler *GenerateHandler
	jobHandler      *JobHandler
	agentsHandler   *AgentsHandler
	artifactHandler *ArtifactHandler
	archiveHandler  *ArchiveHandler
	healthHandler   *HealthHandler
	corsConfig      middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	generateHandler *GenerateHandler,
	jobHandler *JobHandler,
	agentsHandler *AgentsHandler,
	artifactHandler *ArtifactHandler,
	archiveHandler *ArchiveHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		generateHandler: generateHandler,
		jobHandler:      jobHandler,
		agentsHandler:   agentsHandler,
		artifactHandler: artifactHandler,
		archiveHandler:  archiveHandler,
		healthHandler:   healthHandler,
		corsConfig:      corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/generate", rt.handleGenerate)
	mux.HandleFunc("/api/status/", requireMethod(http.MethodGet, rt.jobHandler.Status))
	mux.HandleFunc("/api/logs/", requireMethod(http.MethodGet, rt.jobHandler.Logs))
	mux.HandleFunc("/api/jobs", requireMethod(http.MethodGet, rt.jobHandler.List))
	mux.HandleFunc("/api/agents", requireMethod(http.MethodGet, rt.agentsHandler.List))
	mux.HandleFunc("/api/archive", requireMethod(http.MethodGet, rt.archiveHandler.List))
	mux.HandleFunc("/api/archive/", requireMethod(http.MethodGet, rt.archiveHandler.Get))
	mux.HandleFunc("/output/", requireMethod(http.MethodGet, rt.artifactHandler.Serve))

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// handleGenerate routes the generation endpoint
func (rt *Router) handleGenerate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.generateHandler.Generate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// requireMethod rejects every method except the given one
func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next(w, r)
	}
}
