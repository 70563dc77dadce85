package worker

import (
	"log/slog"
	"sync"

	"github.com/hirelab/crucible/internal/model"
)

// Pool manages a fixed set of worker goroutines draining a bounded task
// queue. Pipeline invocations block their worker for minutes, so the
// pool size is the ceiling on concurrent generations.
type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int) *Pool {
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	slog.Info("Starting worker pool", "workers", p.workers, "queue_size", cap(p.tasks))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for workers to drain it. Tasks already
// queued still run; new submissions are rejected.
func (p *Pool) Stop() {
	slog.Info("Stopping worker pool")

	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	p.wg.Wait()

	slog.Info("Worker pool stopped")
}

// Submit enqueues a task without blocking. A full queue or a stopped pool
// returns ErrQueueFull so the caller can reject the submission.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return model.ErrQueueFull
	}

	select {
	case p.tasks <- task:
		slog.Debug("Task submitted to worker pool",
			"job_id", task.JobID,
			"queue_length", len(p.tasks),
		)
		return nil
	default:
		return model.ErrQueueFull
	}
}

// QueueLength returns the number of tasks waiting for a worker.
func (p *Pool) QueueLength() int {
	return len(p.tasks)
}

// worker drains the task queue until it is closed.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	slog.Debug("Worker started", "worker_id", id)

	for task := range p.tasks {
		slog.Debug("Worker picked up task", "worker_id", id, "job_id", task.JobID)
		task.Run()
	}

	slog.Debug("Worker stopped", "worker_id", id)
}
