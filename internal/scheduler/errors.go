package scheduler

import "errors"

// Sentinel errors for the Not-found / Already-in-state taxonomy of
// SPEC_FULL.md §7. None of these are returned from suspension-request
// handlers, which report the same conditions as boolean/empty-list
// results per the spec's "never fatal" policy — the *Err variants on
// Scheduler (PauseTaskErr, ResumeTaskErr, KillTaskErr) wrap these for the
// direct-call surface and the control API, which want a richer signal
// than a bare bool, and are checked with errors.Is.
var (
	ErrUnknownTask        = errors.New("scheduler: unknown task")
	ErrAlreadyPaused      = errors.New("scheduler: task already paused")
	ErrNotPaused          = errors.New("scheduler: task is not paused")
	ErrCannotPauseSelf    = errors.New("scheduler: a task cannot pause itself")
	ErrCannotPauseCurrent = errors.New("scheduler: cannot pause the task currently executing")
	ErrNoConditionNames   = errors.New("scheduler: WaitCondition requires at least one condition-variable name")
	ErrReentrantStep      = errors.New("scheduler: Step/Run/TimerStep called from within a task")
)
