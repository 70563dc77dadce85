package worker

// Task is one unit of work queued for a pool worker: the generation job
// identified by JobID plus the function that runs it. The pool never
// inspects job state; the task body owns the full lifecycle.
type Task struct {
	JobID string
	Run   func()
}
