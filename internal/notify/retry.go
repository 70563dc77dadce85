package notify

import (
	"math"
	"time"
)

// RetryPolicy controls exponential backoff for webhook delivery.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// SetDefaults fills zero values with safe defaults.
func (p *RetryPolicy) SetDefaults() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 2 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
}

// Delay calculates the backoff before the given attempt.
// Formula: delay = min(initial_delay * (multiplier ^ (attempt-1)), max_delay)
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether another attempt is warranted after the
// given status code or transport error.
func (p *RetryPolicy) ShouldRetry(attempt, statusCode int, err error) bool {
	if attempt >= p.MaxAttempts {
		return false
	}

	// Network errors are retryable.
	if err != nil {
		return true
	}

	// Server errors and rate limiting are retryable.
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	if statusCode == 429 {
		return true
	}

	// Other client errors are not.
	if statusCode >= 400 && statusCode < 500 {
		return false
	}

	return statusCode >= 300
}
