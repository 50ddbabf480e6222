package task

import "time"

// Control is the handle a running task's computation uses to yield
// suspension requests. Every method blocks the calling goroutine until the
// scheduler delivers a resume value; if the task is killed while blocked,
// the call never returns — it unwinds the goroutine's stack via panic so
// deferred scope-exit logic runs, per SPEC_FULL.md §4.1's kill semantics.
type Control struct {
	t *Task
}

func (c *Control) call(req Request) any {
	c.t.reqCh <- req
	select {
	case v := <-c.t.resumeCh:
		return v
	case <-c.t.killCh:
		panic(killSignal{})
	}
}

// Pass yields to the scheduler and re-queues at the tail of the ready
// queue.
func (c *Control) Pass() {
	c.call(Request{Kind: KindPass})
}

// GetScheduler returns a handle to the owning scheduler without
// suspending beyond a single scheduling quantum.
func (c *Control) GetScheduler() Handle {
	return c.call(Request{Kind: KindGetScheduler}).(Handle)
}

// GetTid returns the calling task's own TID.
func (c *Control) GetTid() TID {
	return c.call(Request{Kind: KindGetTid}).(TID)
}

// NewTask spawns a new task running fn and returns its TID.
func (c *Control) NewTask(label string, fn Func) TID {
	return c.call(Request{Kind: KindNewTask, Label: label, Computation: fn}).(TID)
}

// KillTask terminates tid if it is alive, reporting whether it was.
func (c *Control) KillTask(tid TID) bool {
	return c.call(Request{Kind: KindKillTask, TID: tid}).(bool)
}

// KillTasks terminates each alive TID in tids, returning the ones killed.
func (c *Control) KillTasks(tids []TID) []TID {
	return c.call(Request{Kind: KindKillTasks, TIDs: tids}).([]TID)
}

// KillAllTasksExcept terminates every task not named in except. The
// caller is always implicitly excluded (SPEC_FULL.md §9, Open Question 2).
func (c *Control) KillAllTasksExcept(except []TID) []TID {
	return c.call(Request{Kind: KindKillAllTasksExcept, TIDs: except}).([]TID)
}

// PauseTask pauses tid, reporting whether the pause took effect.
func (c *Control) PauseTask(tid TID) bool {
	return c.call(Request{Kind: KindPauseTask, TID: tid}).(bool)
}

// PauseTasks pauses each TID in tids, returning the ones successfully
// paused.
func (c *Control) PauseTasks(tids []TID) []TID {
	return c.call(Request{Kind: KindPauseTasks, TIDs: tids}).([]TID)
}

// ResumeTask resumes a previously paused tid.
func (c *Control) ResumeTask(tid TID) bool {
	return c.call(Request{Kind: KindResumeTask, TID: tid}).(bool)
}

// ResumeTasks resumes each TID in tids, returning the ones successfully
// resumed.
func (c *Control) ResumeTasks(tids []TID) []TID {
	return c.call(Request{Kind: KindResumeTasks, TIDs: tids}).([]TID)
}

// WaitTask blocks until tid terminates, returning its TID and true, or
// false immediately if tid is not alive.
func (c *Control) WaitTask(tid TID) (TID, bool) {
	v := c.call(Request{Kind: KindWaitTask, TID: tid})
	if ok, isBool := v.(bool); isBool && !ok {
		return 0, false
	}
	return v.(TID), true
}

// WaitAnyTasks blocks until the first of tids terminates (or, if one of
// them is already unknown, returns immediately with that TID).
func (c *Control) WaitAnyTasks(tids []TID) TID {
	return c.call(Request{Kind: KindWaitAnyTasks, TIDs: tids}).(TID)
}

// WaitAllTasks blocks until every existing TID in tids has terminated.
func (c *Control) WaitAllTasks(tids []TID) WaitAllResult {
	return c.call(Request{Kind: KindWaitAllTasks, TIDs: tids}).(WaitAllResult)
}

// WaitDuration suspends the calling task for seconds of wall-clock time.
func (c *Control) WaitDuration(seconds float64) {
	c.call(Request{Kind: KindWaitDuration, Seconds: seconds})
}

// WaitCondition suspends until predicate returns true, re-evaluating it
// whenever any condition variable named in names is written. names must
// be non-empty — a predicate with no dependencies would block forever,
// and registering one is a programmer error (SPEC_FULL.md §7).
func (c *Control) WaitCondition(names []string, predicate func() bool) {
	c.call(Request{Kind: KindWaitCondition, Names: names, Predicate: predicate})
}

// Sleep delegates to a Rate, returning the remaining slice computed before
// sleeping (positive if it slept, zero or negative if the rate had already
// overrun).
func (c *Control) Sleep(r *Rate) time.Duration {
	return c.call(Request{Kind: KindSleep, Rate: r}).(time.Duration)
}

// CreateRate constructs a Rate ticking at freqHz, anchored at the current
// scheduler time.
func (c *Control) CreateRate(freqHz float64) *Rate {
	return c.call(Request{Kind: KindCreateRate, Freq: freqHz}).(*Rate)
}
