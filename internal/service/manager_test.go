package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirelab/crucible/internal/event"
	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/pipeline"
	"github.com/hirelab/crucible/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	run func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error)
}

func (s *stubRunner) Run(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
	return s.run(ctx, params, sink)
}

func validParams() model.Params {
	return model.Params{Role: "Backend Developer", Level: "Senior", Language: "English"}
}

func newTestManager(t *testing.T, runner pipeline.Runner) (*Manager, *worker.Pool) {
	t.Helper()
	pool := worker.NewPool(2, 8)
	pool.Start()
	t.Cleanup(pool.Stop)

	manager := NewManager(model.NewJobStore(), pool, event.NewBus(), runner, time.Minute, nil, nil)
	return manager, pool
}

func waitForStatus(t *testing.T, m *Manager, jobID, status string) model.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Status(jobID)
		require.NoError(t, err)
		if job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, status)
	return model.Job{}
}

func TestManager_SubmitReturnsQueuedImmediately(t *testing.T) {
	gate := make(chan struct{})
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		<-gate
		return "out", nil
	}}
	manager, _ := newTestManager(t, runner)

	jobID, err := manager.Submit(context.Background(), validParams())
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job, err := manager.Status(jobID)
	require.NoError(t, err)
	assert.Contains(t, []string{model.StatusQueued, model.StatusRunning}, job.Status)
	assert.Empty(t, job.Result)

	close(gate)
	waitForStatus(t, manager, jobID, model.StatusCompleted)
}

func TestManager_SubmitIssuesUniqueIDs(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		return "out", nil
	}}
	manager, _ := newTestManager(t, runner)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := manager.Submit(context.Background(), validParams())
		require.NoError(t, err)
		assert.False(t, seen[id], "job id %s issued twice", id)
		seen[id] = true
	}
}

func TestManager_SubmitValidation(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		return "out", nil
	}}
	manager, _ := newTestManager(t, runner)

	tests := []struct {
		name   string
		params model.Params
		field  string
	}{
		{"missing role", model.Params{Level: "Senior", Language: "English"}, "role"},
		{"missing level", model.Params{Role: "Backend Developer", Language: "English"}, "level"},
		{"missing language", model.Params{Role: "Backend Developer", Level: "Senior"}, "language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Submit(context.Background(), tt.params)

			var validationErr *model.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	// No job record was created for any rejected submission.
	assert.Empty(t, manager.List())
}

func TestManager_CompletedJobHasResult(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		sink("stage one")
		sink("stage two")
		return "backend_developer_senior_20260101000000", nil
	}}
	manager, _ := newTestManager(t, runner)

	jobID, err := manager.Submit(context.Background(), validParams())
	require.NoError(t, err)

	job := waitForStatus(t, manager, jobID, model.StatusCompleted)
	assert.Equal(t, "backend_developer_senior_20260101000000", job.Result)
	assert.Empty(t, job.Error)

	logs, err := manager.Logs(jobID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "stage one", logs[0].Line)
	assert.Equal(t, "stage two", logs[1].Line)
}

func TestManager_FailedJobIsIsolated(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		if params.Role == "Bad Role" {
			return "", &model.PipelineError{Stage: "assignments", Err: errors.New("upstream refused")}
		}
		return "out", nil
	}}
	manager, _ := newTestManager(t, runner)

	badParams := validParams()
	badParams.Role = "Bad Role"

	badID, err := manager.Submit(context.Background(), badParams)
	require.NoError(t, err)
	goodID, err := manager.Submit(context.Background(), validParams())
	require.NoError(t, err)

	bad := waitForStatus(t, manager, badID, model.StatusFailed)
	assert.Empty(t, bad.Result)
	assert.Contains(t, bad.Error, "upstream refused")

	// The other job is unaffected.
	good := waitForStatus(t, manager, goodID, model.StatusCompleted)
	assert.Equal(t, "out", good.Result)

	// And the registry still accepts new work.
	thirdID, err := manager.Submit(context.Background(), validParams())
	require.NoError(t, err)
	waitForStatus(t, manager, thirdID, model.StatusCompleted)
}

func TestManager_PanicBecomesFailed(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		panic("pipeline exploded")
	}}
	manager, _ := newTestManager(t, runner)

	jobID, err := manager.Submit(context.Background(), validParams())
	require.NoError(t, err)

	job := waitForStatus(t, manager, jobID, model.StatusFailed)
	assert.Contains(t, job.Error, "pipeline exploded")
}

func TestManager_UnknownJob(t *testing.T) {
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		return "out", nil
	}}
	manager, _ := newTestManager(t, runner)

	_, err := manager.Status("nope")
	assert.True(t, errors.Is(err, model.ErrJobNotFound))

	_, err = manager.Logs("nope", 0)
	assert.True(t, errors.Is(err, model.ErrJobNotFound))
}

func TestManager_QueueFullRollsBackRegistration(t *testing.T) {
	gate := make(chan struct{})
	runner := &stubRunner{run: func(ctx context.Context, params model.Params, sink pipeline.Sink) (string, error) {
		<-gate
		return "out", nil
	}}

	pool := worker.NewPool(1, 1)
	pool.Start()
	defer pool.Stop()
	defer close(gate)

	manager := NewManager(model.NewJobStore(), pool, event.NewBus(), runner, time.Minute, nil, nil)

	// First job occupies the worker, second fills the queue.
	_, err := manager.Submit(context.Background(), validParams())
	require.NoError(t, err)

	// Wait for the worker to pick the first job up so the queue slot frees.
	time.Sleep(50 * time.Millisecond)

	_, err = manager.Submit(context.Background(), validParams())
	require.NoError(t, err)

	before := len(manager.List())
	_, err = manager.Submit(context.Background(), validParams())
	require.True(t, errors.Is(err, model.ErrQueueFull))
	assert.Len(t, manager.List(), before, "rejected submission must leave no record")
}
