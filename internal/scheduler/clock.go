package scheduler

import "time"

// Clock is the host-time interface the core consumes (SPEC_FULL.md §6).
// internal/host.RealClock implements it over the real wall clock; tests
// use a fake so timing-sensitive behavior is deterministic.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}
