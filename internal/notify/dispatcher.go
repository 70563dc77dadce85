package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hirelab/crucible/internal/model"
)

// Payload is the completion notification body.
type Payload struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Role       string `json:"role"`
	Level      string `json:"level"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}

// Dispatcher posts terminal-job notifications to the configured webhook
// with bounded exponential-backoff retries.
type Dispatcher struct {
	url        string
	policy     RetryPolicy
	httpClient *http.Client
}

// NewDispatcher creates a webhook dispatcher for the given URL.
func NewDispatcher(url string, policy RetryPolicy, httpClient *http.Client) *Dispatcher {
	policy.SetDefaults()
	return &Dispatcher{
		url:        url,
		policy:     policy,
		httpClient: httpClient,
	}
}

// Notify delivers the terminal notification for a job. Delivery failures
// are logged; nothing propagates back to the job.
func (d *Dispatcher) Notify(ctx context.Context, job model.Job, duration time.Duration) {
	payload := Payload{
		JobID:      job.ID,
		Status:     job.Status,
		Role:       job.Params.Role,
		Level:      job.Params.Level,
		Result:     job.Result,
		Error:      job.Error,
		DurationMs: duration.Milliseconds(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		statusCode, err := d.deliver(ctx, payload)

		if err == nil && statusCode >= 200 && statusCode < 300 {
			slog.Info("Webhook delivered",
				"job_id", job.ID,
				"attempt", attempt,
				"status_code", statusCode,
			)
			return
		}

		if !d.policy.ShouldRetry(attempt, statusCode, err) {
			slog.Error("Webhook delivery failed, not retrying",
				"job_id", job.ID,
				"attempt", attempt,
				"status_code", statusCode,
				"error", err,
			)
			return
		}

		delay := d.policy.Delay(attempt)
		slog.Warn("Webhook delivery failed, retrying",
			"job_id", job.ID,
			"attempt", attempt,
			"next_retry_ms", delay.Milliseconds(),
			"status_code", statusCode,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	slog.Error("Webhook delivery failed after all retries",
		"job_id", job.ID,
		"attempts", d.policy.MaxAttempts,
	)
}

// deliver performs a single webhook POST.
func (d *Dispatcher) deliver(ctx context.Context, payload Payload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain up to 1KB so the connection can be reused.
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	return resp.StatusCode, nil
}
