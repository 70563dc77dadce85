package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hirelab/crucible/internal/event"
	"github.com/hirelab/crucible/internal/model"
	"github.com/hirelab/crucible/internal/pipeline"
	"github.com/hirelab/crucible/internal/worker"
)

// Archiver persists terminal jobs. Implementations must tolerate being
// called from worker goroutines; failures are logged, never surfaced.
type Archiver interface {
	Archive(ctx context.Context, job model.Job) error
}

// Notifier delivers terminal-state notifications. Fire-and-forget from
// the manager's point of view.
type Notifier interface {
	Notify(ctx context.Context, job model.Job, duration time.Duration)
}

// Manager owns the job registry and the full job lifecycle: it validates
// submissions, schedules pipeline runs on the worker pool, and serves
// point-in-time status and log snapshots.
type Manager struct {
	store    *model.JobStore
	pool     *worker.Pool
	bus      *event.Bus
	runner   pipeline.Runner
	validate *validator.Validate
	timeout  time.Duration
	archiver Archiver
	notifier Notifier
}

// NewManager creates a job manager. archiver and notifier may be nil when
// the corresponding feature is disabled.
func NewManager(
	store *model.JobStore,
	pool *worker.Pool,
	bus *event.Bus,
	runner pipeline.Runner,
	timeout time.Duration,
	archiver Archiver,
	notifier Notifier,
) *Manager {
	return &Manager{
		store:    store,
		pool:     pool,
		bus:      bus,
		runner:   runner,
		validate: validator.New(),
		timeout:  timeout,
		archiver: archiver,
		notifier: notifier,
	}
}

// Submit validates the parameters, registers a queued job, and schedules
// its execution. It returns the new job id without waiting for the
// pipeline. A full queue rolls the registration back and returns
// ErrQueueFull.
func (m *Manager) Submit(ctx context.Context, params model.Params) (string, error) {
	if err := m.validateParams(params); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	job := &model.Job{
		ID:        uuid.New().String(),
		Params:    params,
		Status:    model.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store.Insert(job)

	task := worker.Task{
		JobID: job.ID,
		Run:   func() { m.execute(job.ID, params) },
	}
	if err := m.pool.Submit(task); err != nil {
		m.store.Remove(job.ID)
		return "", err
	}

	slog.Info("Job submitted",
		"job_id", job.ID,
		"role", params.Role,
		"level", params.Level,
	)
	return job.ID, nil
}

// Status returns a snapshot of the job, or ErrJobNotFound.
func (m *Manager) Status(jobID string) (model.Job, error) {
	job, ok := m.store.Get(jobID)
	if !ok {
		return model.Job{}, model.ErrJobNotFound
	}
	return job, nil
}

// Logs returns the job's log entries from offset onward, or
// ErrJobNotFound. Repeated calls observe a monotonically growing prefix.
func (m *Manager) Logs(jobID string, offset int) ([]model.LogEntry, error) {
	entries, ok := m.store.Logs(jobID, offset)
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return entries, nil
}

// List returns summaries of all known jobs, newest first.
func (m *Manager) List() []model.JobSummary {
	return m.store.List()
}

// validateParams checks the submission shape and maps the first failure
// to a ValidationError.
func (m *Manager) validateParams(params model.Params) error {
	err := m.validate.Struct(params)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := "is required"
		if fe.Tag() == "max" {
			msg = fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return &model.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: msg,
		}
	}
	return &model.ValidationError{Field: "parameters", Message: err.Error()}
}

// execute is the worker task body: it drives one job from running to a
// terminal state. Pipeline failures and panics are confined to this job.
func (m *Manager) execute(jobID string, params model.Params) {
	start := time.Now()

	if !m.store.MarkRunning(jobID) {
		slog.Warn("Job skipped, not in queued state", "job_id", jobID)
		return
	}
	m.publishStatus(jobID, model.StatusRunning)

	sink := func(line string) {
		m.store.AppendLog(jobID, line)
		m.bus.Publish(event.Event{JobID: jobID, Type: event.TypeLog, Data: line})
	}

	slog.Info("Job started", "job_id", jobID)

	result, err := m.runPipeline(jobID, params, sink)

	if err != nil {
		m.store.MarkFailed(jobID, err.Error())
		m.publishStatus(jobID, model.StatusFailed)
		slog.Error("Job failed",
			"job_id", jobID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
	} else {
		m.store.MarkCompleted(jobID, result)
		m.publishStatus(jobID, model.StatusCompleted)
		slog.Info("Job completed",
			"job_id", jobID,
			"result", result,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	m.finalize(jobID, time.Since(start))
}

// runPipeline invokes the runner under the configured timeout and
// converts panics into errors.
func (m *Manager) runPipeline(jobID string, params model.Params, sink pipeline.Sink) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	return m.runner.Run(ctx, params, sink)
}

// finalize archives the terminal job and fires the completion webhook.
// Both are best-effort.
func (m *Manager) finalize(jobID string, duration time.Duration) {
	job, ok := m.store.Get(jobID)
	if !ok {
		return
	}

	if m.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := m.archiver.Archive(ctx, job); err != nil {
			slog.Warn("Failed to archive job", "job_id", jobID, "error", err)
		}
		cancel()
	}

	if m.notifier != nil {
		go m.notifier.Notify(context.Background(), job, duration)
	}
}

func (m *Manager) publishStatus(jobID, status string) {
	m.bus.Publish(event.Event{JobID: jobID, Type: event.TypeStatus, Data: status})
}
