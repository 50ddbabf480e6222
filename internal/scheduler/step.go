package scheduler

import (
	"fmt"
	"time"

	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/task"
)

// Step drains the ready queue once, running each ready task until it
// yields its next suspension request and dispatching that request. Step
// is not reentrant: calling it from within a running task panics, since
// the scheduler's own bookkeeping is not safe for recursive mutation
// (SPEC_FULL.md §5).
func (s *Scheduler) Step() {
	if s.running {
		panic(ErrReentrantStep)
	}
	s.running = true
	defer func() { s.running = false }()

	// Snapshot the queue length so tasks this pass's own handlers append at
	// the tail (e.g. a freshly-spawned child, or a Pass) run on the *next*
	// Step. A task re-queued at the front (e.g. by an immediately-true
	// WaitCondition or GetTid) is popped again within this pass and uses
	// one of the n slots, so the last entries of the snapshot wait for the
	// next Step.
	n := s.ready.Len()
	for i := 0; i < n; i++ {
		front := s.ready.Front()
		if front == nil {
			break
		}
		tid := front.Value.(task.TID)
		s.ready.Remove(front)
		delete(s.readyIndex, tid)
		s.runOne(tid)
	}
}

// runOne resumes tid with its pending value and dispatches the request it
// yields (or tears it down, if it ran to completion or panicked).
func (s *Scheduler) runOne(tid task.TID) {
	entry, ok := s.tasks[tid]
	if !ok {
		return
	}
	value := entry.pendingValue
	entry.pendingValue = nil

	s.current = tid
	s.hasCurrent = true
	req, alive := entry.t.Resume(value)
	s.hasCurrent = false

	if !alive {
		delete(s.tasks, tid)
		reason := ReasonCompleted
		if entry.t.Killed() {
			reason = ReasonKilled
		} else if entry.t.ExitErr() != nil {
			reason = ReasonPanicked
		}
		s.notifyExit(tid, entry.label, reason)
		return
	}

	s.dispatch(tid, req)
}

// TimerStep pops and fires every timer due at or before now, returning the
// number of timers fired. Callers typically follow it with Step to run
// whatever those timers just woke. Hosts that want wall-clock-driven
// behavior call TimerStep(clock.Now()) on each tick of their own loop
// (internal/host.Driver does this).
func (s *Scheduler) TimerStep(now time.Time) int {
	due := s.popDueTimers(now)
	for _, entry := range due {
		entry.fn()
	}
	return len(due)
}

// NextTimerAt reports when the next timer is due, if any is pending.
func (s *Scheduler) NextTimerAt() (time.Time, bool) {
	e := s.timers.Peek()
	if e == nil {
		return time.Time{}, false
	}
	return e.fireAt, true
}

// Idle reports whether there is no work left to do: no ready tasks and no
// pending timers. A scheduler can still be non-idle with zero live tasks
// momentarily between a kill and its exit-wait notifications, but never
// across a full Step/TimerStep pair.
func (s *Scheduler) Idle() bool {
	_, hasTimer := s.NextTimerAt()
	return s.ready.Len() == 0 && !hasTimer
}

// Run drives Step/TimerStep in a loop until Idle, advancing through
// pending timers as needed rather than sleeping. Intended for
// single-process batch use (tests, CLI demos); internal/host.Driver
// provides the wall-clock-paced version for long-running hosts.
func (s *Scheduler) Run() {
	for !s.Idle() {
		s.Step()
		if s.ready.Len() > 0 {
			continue
		}
		if at, ok := s.NextTimerAt(); ok {
			s.TimerStep(at)
		}
	}
}

// dispatch routes a yielded Request to its handler. Every branch either
// reschedules tid immediately (scheduleFront/scheduleReady) or registers
// it into a wait set to be woken later.
func (s *Scheduler) dispatch(tid task.TID, req task.Request) {
	switch req.Kind {
	case task.KindPass:
		s.scheduleReady(tid, nil)

	case task.KindGetScheduler:
		s.scheduleFront(tid, task.Handle(s))

	case task.KindGetTid:
		s.scheduleFront(tid, tid)

	case task.KindNewTask:
		child := s.newTaskInternal(req.Label, req.Computation)
		s.scheduleFront(tid, child)

	case task.KindKillTask:
		ok := s.killTask(req.TID, ReasonKilled)
		s.scheduleFront(tid, ok)

	case task.KindKillTasks:
		killed := s.KillTasks(req.TIDs)
		s.scheduleFront(tid, killed)

	case task.KindKillAllTasksExcept:
		except := append(append([]task.TID(nil), req.TIDs...), tid)
		killed := s.KillAllTasksExcept(except)
		s.scheduleFront(tid, killed)

	case task.KindPauseTask:
		ok := s.pauseTaskFor(tid, req.TID)
		s.scheduleFront(tid, ok)

	case task.KindPauseTasks:
		var paused []task.TID
		for _, t := range req.TIDs {
			if s.pauseTaskFor(tid, t) {
				paused = append(paused, t)
			}
		}
		s.scheduleFront(tid, paused)

	case task.KindResumeTask:
		ok := s.ResumeTask(req.TID)
		s.scheduleFront(tid, ok)

	case task.KindResumeTasks:
		resumed := s.ResumeTasks(req.TIDs)
		s.scheduleFront(tid, resumed)

	case task.KindWaitTask:
		s.handleWaitTask(tid, req.TID)

	case task.KindWaitAnyTasks:
		s.handleWaitAnyTasks(tid, req.TIDs)

	case task.KindWaitAllTasks:
		s.handleWaitAllTasks(tid, req.TIDs)

	case task.KindWaitDuration:
		s.handleWaitDuration(tid, req.Seconds)

	case task.KindWaitCondition:
		s.handleWaitCondition(tid, req.Names, req.Predicate)

	case task.KindSleep:
		s.handleSleep(tid, req.Rate)

	case task.KindCreateRate:
		s.scheduleFront(tid, task.NewRate(req.Freq, s.clock.Now()))

	default:
		panic(ErrUnknownTask)
	}
}

// pauseTaskFor applies the "a task cannot pause itself" rule from the
// suspension-request surface (SPEC_FULL.md §4.4); the direct-call
// PauseTask has no caller identity and so has no such restriction beyond
// refusing to pause the task currently executing.
func (s *Scheduler) pauseTaskFor(caller, target task.TID) bool {
	if caller == target {
		logger.Debug().Err(fmt.Errorf("pause task %s: %w", target, ErrCannotPauseSelf)).Msg("pause rejected")
		return false
	}
	return s.PauseTask(target)
}
