// Package retry implements the timeout-driven retry engine: detecting
// stuck running jobs and re-enqueueing them with exponential backoff up
// to a configured attempt budget.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Reason enumerates why a retry was recorded. The timeout engine only
// ever produces ReasonJobTimeout; the rest are reserved for a future
// error taxonomy (worker-reported execution failures are terminal today,
// never retried by the core).
type Reason string

const (
	ReasonJobTimeout     Reason = "job_timeout"
	ReasonWorkerFaulty   Reason = "worker_faulty"
	ReasonExecutionError Reason = "execution_error"
	ReasonTransientError Reason = "transient_error"
	ReasonManualRetry    Reason = "manual_retry"
)

// Policy is the tuple (max_attempts, initial_delay, backoff_multiplier,
// max_delay, jitter) governing re-enqueuing.
type Policy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	MaxDelay          time.Duration
	Jitter            bool
}

// DefaultPolicy matches the spec's documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialDelay:      1 * time.Second,
		BackoffMultiplier: 2.0,
		MaxDelay:          300 * time.Second,
		Jitter:            true,
	}
}

// ShouldRetry is true iff attemptsSoFar < max_attempts. The initial
// execution counts as attempt 1.
func (p Policy) ShouldRetry(attemptsSoFar int) bool {
	return attemptsSoFar < p.MaxAttempts
}

// CalculateDelay computes the unjittered exponential backoff delay for
// attempt k (0-indexed): min(initial_delay * multiplier^k, max_delay).
func CalculateDelay(attempt int, initial time.Duration, multiplier float64, max time.Duration) time.Duration {
	if attempt == 0 {
		if initial > max {
			return max
		}
		return initial
	}
	delay := float64(initial) * math.Pow(multiplier, float64(attempt))
	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}

// GetDelay applies the policy's backoff formula and, when jitter is
// enabled, adds a non-negative jitter bounded by 0.25 * delay.
func (p Policy) GetDelay(attempt int) time.Duration {
	delay := CalculateDelay(attempt, p.InitialDelay, p.BackoffMultiplier, p.MaxDelay)
	if !p.Jitter {
		return delay
	}
	jitter := time.Duration(rand.Float64() * 0.25 * float64(delay))
	return delay + jitter
}
