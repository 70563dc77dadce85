package model

import (
	"time"
)

// Job statuses. Transitions are monotonic: queued -> running -> completed|failed.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Params carries the assessment request fields, passed through to the
// pipeline without interpretation.
type Params struct {
	Role     string `json:"role" bson:"role" validate:"required,max=120"`
	Level    string `json:"level" bson:"level" validate:"required,max=60"`
	Language string `json:"language" bson:"language" validate:"required,max=60"`
}

// LogEntry is a single timestamped pipeline log line.
type LogEntry struct {
	At   time.Time `json:"at" bson:"at"`
	Line string    `json:"line" bson:"line"`
}

// Job tracks one assessment generation from submission to terminal state.
// Result points at the output directory and is set only on completion;
// Error holds the terminal failure message and is set only on failure.
type Job struct {
	ID        string     `json:"job_id" bson:"job_id"`
	Params    Params     `json:"parameters" bson:"parameters"`
	Status    string     `json:"status" bson:"status"`
	Logs      []LogEntry `json:"logs" bson:"logs"`
	Result    string     `json:"result,omitempty" bson:"result,omitempty"`
	Error     string     `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// clone returns a deep copy so readers never share the live log slice.
func (j *Job) clone() Job {
	cp := *j
	cp.Logs = make([]LogEntry, len(j.Logs))
	copy(cp.Logs, j.Logs)
	return cp
}

// JobSummary is the list-view projection of a Job.
type JobSummary struct {
	ID        string    `json:"job_id"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	Language  string    `json:"language"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary projects the job for list responses.
func (j *Job) Summary() JobSummary {
	return JobSummary{
		ID:        j.ID,
		Role:      j.Params.Role,
		Level:     j.Params.Level,
		Language:  j.Params.Language,
		Status:    j.Status,
		Result:    j.Result,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
