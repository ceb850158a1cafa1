package worker

import (
	"math"
	"time"
)

// RetryPolicy spaces notification delivery attempts exponentially.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Exhausted reports whether a task that just failed its attempt-th delivery
// (1-based) should be dead-lettered.
func (r RetryPolicy) Exhausted(attempt int) bool {
	return attempt >= r.MaxRetries
}

// NextAttemptAt is when the next delivery may run after the attempt-th failure.
func (r RetryPolicy) NextAttemptAt(failedAt time.Time, attempt int) time.Time {
	return failedAt.Add(r.NextDelay(attempt))
}

// NextDelay returns InitialDelay * BackoffFactor^(attempt-1), capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}
	attempt = max(attempt, 1)

	d := time.Duration(float64(initial) * math.Pow(factor, float64(attempt-1)))
	if r.MaxDelay > 0 && (d > r.MaxDelay || d <= 0) {
		return r.MaxDelay
	}
	if d <= 0 {
		return time.Second
	}
	return d
}
