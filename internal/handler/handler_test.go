package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hirelab/crucible/internal/event"
	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/pipeline"
	"github.com/hirelab/crucible/internal/service"
	"github.com/hirelab/crucible/internal/worker"
	"github.com/hirelab/crucible/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	result string
	err    error
	logs   []string
}

func (s *stubRunner) Run(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
	for _, line := range s.logs {
		sink(line)
	}
	return s.result, s.err
}

type testEnv struct {
	handler http.Handler
	manager *service.Manager
	bus     *event.Bus
	outDir  string
}

func newTestEnv(t *testing.T, runner pipeline.Runner) *testEnv {
	t.Helper()

	pool := worker.NewPool(2, 8)
	pool.Start()
	t.Cleanup(pool.Stop)

	bus := event.NewBus()
	manager := service.NewManager(model.NewJobStore(), pool, bus, runner, time.Minute, nil, nil)

	manifest, err := pipeline.LoadManifest("")
	require.NoError(t, err)

	outDir := t.TempDir()

	router := NewRouter(
		NewGenerateHandler(manager),
		NewJobHandler(manager, bus),
		NewAgentsHandler(manifest),
		NewArtifactHandler(outDir),
		NewArchiveHandler(nil),
		NewHealthHandler(nil, "test"),
		middleware.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET, POST, OPTIONS", AllowedHeaders: "*"},
	)

	return &testEnv{
		handler: router.Handler(),
		manager: manager,
		bus:     bus,
		outDir:  outDir,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) submitAndWait(t *testing.T, status string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/generate", `{"role":"Backend Developer","level":"Senior","language":"English"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp AsyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.JobID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := e.manager.Status(resp.JobID)
		require.NoError(t, err)
		if job.Status == status {
			return resp.JobID
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", resp.JobID, status)
	return ""
}

func TestGenerate_Accepted(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodPost, "/api/generate", `{"role":"Backend Developer","level":"Senior","language":"English"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp AsyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, model.StatusQueued, resp.Status)
}

func TestGenerate_ValidationRejected(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodPost, "/api/generate", `{"level":"Senior","language":"English"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Message, "role")

	// No job record was created.
	list := env.do(t, http.MethodGet, "/api/jobs", "")
	var listResp ListResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listResp))
	assert.Zero(t, listResp.Count)
}

func TestGenerate_InvalidBody(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodPost, "/api/generate", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodGet, "/api/generate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatus_CompletedJob(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir", logs: []string{"working"}})
	jobID := env.submitAndWait(t, model.StatusCompleted)

	rec := env.do(t, http.MethodGet, "/api/status/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobID, resp.JobID)
	assert.Equal(t, model.StatusCompleted, resp.Status)
	assert.Equal(t, "out_dir", resp.Result)
	assert.Empty(t, resp.Error)
}

func TestStatus_Unknown(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodGet, "/api/status/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogs_ReturnsEmissionOrder(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir", logs: []string{"first", "second", "third"}})
	jobID := env.submitAndWait(t, model.StatusCompleted)

	rec := env.do(t, http.MethodGet, "/api/logs/"+jobID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LogsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "first", resp.Logs[0].Line)
	assert.Equal(t, "third", resp.Logs[2].Line)

	// Offset slicing.
	rec = env.do(t, http.MethodGet, "/api/logs/"+jobID+"?offset=2", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "third", resp.Logs[0].Line)
}

func TestLogs_Unknown(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodGet, "/api/logs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogs_StreamReplaysTerminalJob(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir", logs: []string{"alpha", "beta"}})
	jobID := env.submitAndWait(t, model.StatusCompleted)

	rec := env.do(t, http.MethodGet, "/api/logs/"+jobID+"/stream", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "event: log\ndata: alpha\n")
	assert.Contains(t, body, "event: log\ndata: beta\n")
	assert.Contains(t, body, "event: status\ndata: completed\n")
}

func TestJobs_List(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})
	env.submitAndWait(t, model.StatusCompleted)
	env.submitAndWait(t, model.StatusCompleted)

	rec := env.do(t, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Jobs, 2)
	assert.False(t, resp.Jobs[0].CreatedAt.Before(resp.Jobs[1].CreatedAt), "newest first")
}

func TestAgents_Roster(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodGet, "/api/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AgentsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, resp.Count, len(resp.Agents))
	assert.NotZero(t, resp.Count)
}

func TestArchive_DisabledReturns404(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodGet, "/api/archive", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/archive/some-job", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtifacts_ServeAndNoCache(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	dir := filepath.Join(env.outDir, "backend_developer_senior_20260101000000")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>portal</html>"), 0o644))

	rec := env.do(t, http.MethodGet, "/output/backend_developer_senior_20260101000000/index.html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portal")
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")
}

func TestArtifacts_TraversalBlocked(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	// The mux redirects dotted paths and the handler strips traversal
	// segments; either way the file outside the root must not be served.
	rec := env.do(t, http.MethodGet, "/output/..%2fgo.mod", "")
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "module github.com")
}

func TestHealth_ArchiveDisabled(t *testing.T) {
	env := newTestEnv(t, &stubRunner{result: "out_dir"})

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "disabled", resp.Archive)

	ready := env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, ready.Code)
}
