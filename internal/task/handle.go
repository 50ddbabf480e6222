package task

import "time"

// Handle is the set of direct-call methods a scheduler exposes, per
// SPEC_FULL.md §6. These are safe to invoke both from outside any task and
// from within a running task's own goroutine; unlike the suspension
// requests of Control, none of them suspend the caller.
//
// It is defined here, rather than in internal/scheduler, so that Control
// can hand a task its GetScheduler() result without internal/task needing
// to import internal/scheduler. *scheduler.Scheduler satisfies this
// interface structurally.
type Handle interface {
	NewTask(label string, fn Func) TID
	KillTask(tid TID) bool
	KillTasks(tids []TID) []TID
	KillAllTasksExcept(except []TID) []TID
	PauseTask(tid TID) bool
	PauseTasks(tids []TID) []TID
	ResumeTask(tid TID) bool
	ResumeTasks(tids []TID) []TID
	ListAllTIDs() []TID
	CurrentTime() time.Time
	CreateRate(freqHz float64) *Rate
}
