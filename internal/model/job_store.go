package model

import (
	"sort"
	"sync"
	"time"
)

// JobStore is the in-memory job registry. It is the sole owner of Job
// records: the worker executing a job mutates it through these methods,
// and readers always receive copies, never the live record.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job registry.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
	}
}

// Insert registers a freshly submitted job in the queued state.
func (s *JobStore) Insert(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot of the job.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.clone(), true
}

// AppendLog adds a log line to the job. Lines are never reordered or
// truncated, so repeated reads observe a growing prefix.
func (s *JobStore) AppendLog(id string, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.Logs = append(job.Logs, LogEntry{At: now, Line: line})
	job.UpdatedAt = now
}

// Logs returns a copy of the job's log entries from offset onward.
func (s *JobStore) Logs(id string, offset int) ([]LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	if offset < 0 || offset > len(job.Logs) {
		offset = len(job.Logs)
	}
	entries := make([]LogEntry, len(job.Logs)-offset)
	copy(entries, job.Logs[offset:])
	return entries, true
}

// MarkRunning moves a queued job to running. Returns false if the job is
// unknown or has already left the queued state.
func (s *JobStore) MarkRunning(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != StatusQueued {
		return false
	}
	job.Status = StatusRunning
	job.UpdatedAt = time.Now().UTC()
	return true
}

// MarkCompleted moves a job to completed and records the result reference.
// Terminal states never change again.
func (s *JobStore) MarkCompleted(id string, result string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Terminal() {
		return false
	}
	job.Status = StatusCompleted
	job.Result = result
	job.UpdatedAt = time.Now().UTC()
	return true
}

// MarkFailed moves a job to failed with the terminal error message.
func (s *JobStore) MarkFailed(id string, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Terminal() {
		return false
	}
	now := time.Now().UTC()
	job.Status = StatusFailed
	job.Error = msg
	job.Logs = append(job.Logs, LogEntry{At: now, Line: "error: " + msg})
	job.UpdatedAt = now
	return true
}

// List returns summaries of all known jobs, newest first.
func (s *JobStore) List() []JobSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summaries := make([]JobSummary, 0, len(s.jobs))
	for _, job := range s.jobs {
		summaries = append(summaries, job.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// Remove drops a job from the registry. Used to roll back a submission
// that could not be enqueued.
func (s *JobStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}

// DeleteTerminalBefore evicts completed and failed jobs last updated
// before the cutoff. Queued and running jobs are never evicted. Returns
// the number of jobs removed.
func (s *JobStore) DeleteTerminalBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		if job.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of jobs currently registered.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
