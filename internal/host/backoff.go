package host

import (
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy controls how long a Redis connection attempt waits before
// retrying after a failure. Adapted from the task queue's
// exponential-backoff-with-jitter math (see DESIGN.md) — this scheduler
// has no task-retry concept of its own, only connection-retry.
type BackoffPolicy struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	Jitter  float64
}

// DefaultBackoffPolicy returns a sensible default for Redis connection
// retries.
func DefaultBackoffPolicy() *BackoffPolicy {
	return &BackoffPolicy{
		Initial: 50 * time.Millisecond,
		Max:     5 * time.Second,
		Factor:  2.0,
		Jitter:  0.1,
	}
}

// Calculate returns the backoff duration for the given attempt number
// (0-indexed), with +/- Jitter fraction of random noise applied. Attempt 0
// (or a negative attempt) returns Initial exactly, without jitter.
func (p *BackoffPolicy) Calculate(attempt int) time.Duration {
	if attempt <= 0 {
		return p.Initial
	}

	backoff := float64(p.Initial) * math.Pow(p.Factor, float64(attempt))
	if backoff > float64(p.Max) {
		backoff = float64(p.Max)
	}

	if p.Jitter > 0 {
		backoff += backoff * p.Jitter * (rand.Float64()*2 - 1)
	}
	if backoff < 0 {
		backoff = float64(p.Initial)
	}

	return time.Duration(backoff)
}
