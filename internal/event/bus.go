package event

import (
	"log/slog"
	"sync"
	"time"
)

// Event types published over the bus.
const (
	TypeLog    = "log"
	TypeStatus = "status"
)

// Event is one job lifecycle notification.
type Event struct {
	JobID string    `json:"job_id"`
	Type  string    `json:"type"`
	Data  string    `json:"data"`
	At    time.Time `json:"at"`
}

// subscriberBuffer bounds each subscriber channel. Slow consumers drop
// events rather than stall the publishing worker.
const subscriberBuffer = 100

// Bus fans job events out to per-job subscribers. Publishing never blocks.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe registers interest in one job's events. The returned cancel
// function removes the subscription and closes the channel; it is safe to
// call more than once.
func (b *Bus) Subscribe(jobID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[jobID] = append(b.subscribers[jobID], ch)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			chans := b.subscribers[jobID]
			for i, c := range chans {
				if c == ch {
					b.subscribers[jobID] = append(chans[:i], chans[i+1:]...)
					break
				}
			}
			if len(b.subscribers[jobID]) == 0 {
				delete(b.subscribers, jobID)
			}
			close(ch)
		})
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber of its job. Full
// subscriber buffers are skipped.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[evt.JobID] {
		select {
		case ch <- evt:
		default:
			slog.Debug("Dropping event for slow subscriber",
				"job_id", evt.JobID,
				"type", evt.Type,
			)
		}
	}
}

// SubscriberCount reports the number of active subscriptions for a job.
func (b *Bus) SubscriberCount(jobID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[jobID])
}
