// Package host wires the cooperative scheduler core (internal/scheduler)
// to the outside world: the real wall clock, a single-goroutine driver
// loop exposing the pool-style Start/Stop/Pause/Resume lifecycle, and the
// exponential backoff used when retrying the Redis connection.
package host

import "time"

// RealClock implements scheduler.Clock over the actual wall clock.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep blocks the calling goroutine for d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
