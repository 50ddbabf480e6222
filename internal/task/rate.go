package task

import "time"

// Rate helps a task run a loop at a fixed frequency. It is immutable apart
// from LastTick, which the scheduler updates each time the task sleeps
// through it.
type Rate struct {
	Period   time.Duration
	LastTick time.Time
}

// NewRate constructs a Rate ticking at freqHz times per second, anchored at
// the given start time.
func NewRate(freqHz float64, start time.Time) *Rate {
	return &Rate{
		Period:   time.Duration(float64(time.Second) / freqHz),
		LastTick: start,
	}
}
