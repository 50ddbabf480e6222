// Package scheduler implements the cooperative task scheduler of
// SPEC_FULL.md: the ready queue, the condition-variable facility, the
// timer heap, the task state machine, and the handlers for every
// suspension request a task may yield.
//
// The scheduler itself is single-threaded by convention — every method on
// Scheduler must be called from a single logical thread of control (either
// the goroutine driving Step/Run/TimerStep, or synchronously from within a
// currently-running task's own goroutine, which amounts to the same
// thing). Multi-threaded hosts wrap a Scheduler in internal/host.Driver
// rather than locking it internally, per SPEC_FULL.md §5.
package scheduler

import (
	"container/list"
	"fmt"
	"sort"
	"time"

	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/task"
)

// TermReason classifies why a task stopped existing, for logging and
// metrics (SPEC_FULL.md §15's reason label).
type TermReason string

const (
	ReasonCompleted TermReason = "completed"
	ReasonKilled    TermReason = "killed"
	ReasonPanicked  TermReason = "panicked"
)

// EventSink receives lifecycle notifications as they happen, so the
// ambient event pipeline (internal/events) can publish them without the
// scheduler package importing it. Scheduler works with a nil sink.
type EventSink interface {
	TaskCreated(tid task.TID, label string)
	TaskTerminated(tid task.TID, label string, reason TermReason)
	TaskPaused(tid task.TID)
	TaskResumed(tid task.TID)
	ConditionWritten(name string)
}

type taskEntry struct {
	t            *task.Task
	label        string
	pendingValue any
	waiting      TaskState
}

type condRegistration struct {
	tid       task.TID
	names     []string
	predicate func() bool
}

type exitWaiterState struct {
	tid            task.TID
	mode           task.WaitMode
	targets        map[task.TID]bool
	originalWaited []task.TID
}

type exitEntry struct {
	state *exitWaiterState
}

// Scheduler owns all tasks, the ready queue, the condition-wait map, the
// exit-wait map, and the paused sets (SPEC_FULL.md §3).
type Scheduler struct {
	clock Clock
	sink  EventSink

	tasks   map[task.TID]*taskEntry
	nextTID task.TID

	ready      *list.List
	readyIndex map[task.TID]*list.Element

	current    task.TID
	hasCurrent bool
	running    bool

	conditionWait  map[string][]*condRegistration
	condByTid      map[task.TID]*condRegistration
	exitWait       map[task.TID][]*exitEntry
	exitWaiterByTid map[task.TID]*exitWaiterState

	pausedInReady   map[task.TID]bool
	pausedInSyscall map[task.TID]bool

	timers timerHeap
	seq    int64
}

// New constructs an empty Scheduler driven by clock. sink may be nil.
func New(clock Clock, sink EventSink) *Scheduler {
	return &Scheduler{
		clock:           clock,
		sink:            sink,
		tasks:           make(map[task.TID]*taskEntry),
		ready:           list.New(),
		readyIndex:      make(map[task.TID]*list.Element),
		conditionWait:   make(map[string][]*condRegistration),
		condByTid:       make(map[task.TID]*condRegistration),
		exitWait:        make(map[task.TID][]*exitEntry),
		exitWaiterByTid: make(map[task.TID]*exitWaiterState),
		pausedInReady:   make(map[task.TID]bool),
		pausedInSyscall: make(map[task.TID]bool),
	}
}

// ---- ready queue plumbing ----

func (s *Scheduler) scheduleReady(tid task.TID, value any) {
	entry, ok := s.tasks[tid]
	if !ok {
		return
	}
	entry.pendingValue = value
	entry.waiting = StateReady
	elem := s.ready.PushBack(tid)
	s.readyIndex[tid] = elem
}

func (s *Scheduler) scheduleFront(tid task.TID, value any) {
	entry, ok := s.tasks[tid]
	if !ok {
		return
	}
	entry.pendingValue = value
	entry.waiting = StateReady
	elem := s.ready.PushFront(tid)
	s.readyIndex[tid] = elem
}

// wakeOrDefer implements the single rule for "a wake event fires for a
// task that is currently paused_in_syscall": it lands in paused_in_ready
// instead of the ready queue, per SPEC_FULL.md §4.4 and the Open Question
// decision in §9/DESIGN.md applying that same rule to condition-wait.
func (s *Scheduler) wakeOrDefer(tid task.TID, value any, front bool) {
	entry, ok := s.tasks[tid]
	if !ok {
		return
	}
	if s.pausedInSyscall[tid] {
		delete(s.pausedInSyscall, tid)
		s.pausedInReady[tid] = true
		entry.pendingValue = value
		return
	}
	if front {
		s.scheduleFront(tid, value)
	} else {
		s.scheduleReady(tid, value)
	}
}

// ---- spawning ----

func (s *Scheduler) newTaskInternal(label string, fn task.Func) task.TID {
	s.nextTID++
	tid := s.nextTID
	t := task.Spawn(tid, label, fn)
	s.tasks[tid] = &taskEntry{t: t, label: label}
	s.scheduleReady(tid, nil)
	if s.sink != nil {
		s.sink.TaskCreated(tid, label)
	}
	logger.Info().Int64("tid", int64(tid)).Str("label", label).Msg("task_created")
	return tid
}

// NewTask is the direct-call form of spawning a task (SPEC_FULL.md §6).
func (s *Scheduler) NewTask(label string, fn task.Func) task.TID {
	return s.newTaskInternal(label, fn)
}

// ---- kill ----

func (s *Scheduler) killTask(tid task.TID, reason TermReason) bool {
	entry, ok := s.tasks[tid]
	if !ok {
		return false
	}
	s.detach(tid)
	entry.t.Kill()
	delete(s.tasks, tid)

	if entry.t.ExitErr() != nil {
		reason = ReasonPanicked
	}
	s.notifyExit(tid, entry.label, reason)
	return true
}

// detach removes tid's bookkeeping from every wait set it might occupy.
// Timer-heap entries are left in place and skipped lazily (see timer.go).
func (s *Scheduler) detach(tid task.TID) {
	if elem, ok := s.readyIndex[tid]; ok {
		s.ready.Remove(elem)
		delete(s.readyIndex, tid)
	}
	delete(s.pausedInReady, tid)
	delete(s.pausedInSyscall, tid)

	if reg, ok := s.condByTid[tid]; ok {
		s.removeCondRegistration(reg)
		delete(s.condByTid, tid)
	}

	if st, ok := s.exitWaiterByTid[tid]; ok {
		for target := range st.targets {
			s.removeExitWaiter(target, st)
		}
		delete(s.exitWaiterByTid, tid)
	}
}

// KillTask terminates tid if alive (direct-call form).
func (s *Scheduler) KillTask(tid task.TID) bool {
	return s.killTask(tid, ReasonKilled)
}

// KillTaskErr is KillTask's error-returning counterpart for callers (the
// control API) that want to distinguish "unknown task" from success via
// errors.Is, per SPEC_FULL.md §7.
func (s *Scheduler) KillTaskErr(tid task.TID) error {
	if !s.killTask(tid, ReasonKilled) {
		return fmt.Errorf("kill task %s: %w", tid, ErrUnknownTask)
	}
	return nil
}

// KillTasks terminates every alive TID in tids (direct-call form).
func (s *Scheduler) KillTasks(tids []task.TID) []task.TID {
	var killed []task.TID
	for _, tid := range tids {
		if s.killTask(tid, ReasonKilled) {
			killed = append(killed, tid)
		}
	}
	return killed
}

// KillAllTasksExcept terminates every task not named in except
// (direct-call form; no implicit self — see Control.KillAllTasksExcept
// for the suspension-request form, which always protects its caller).
func (s *Scheduler) KillAllTasksExcept(except []task.TID) []task.TID {
	protect := make(map[task.TID]bool, len(except))
	for _, tid := range except {
		protect[tid] = true
	}
	var victims []task.TID
	for tid := range s.tasks {
		if !protect[tid] {
			victims = append(victims, tid)
		}
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i] < victims[j] })
	for _, tid := range victims {
		s.killTask(tid, ReasonKilled)
	}
	return victims
}

// ---- pause / resume ----

// PauseTask pauses tid per the location table in SPEC_FULL.md §4.4.
func (s *Scheduler) PauseTask(tid task.TID) bool {
	if s.hasCurrent && tid == s.current {
		return false
	}
	entry, ok := s.tasks[tid]
	if !ok {
		return false
	}
	if s.pausedInReady[tid] || s.pausedInSyscall[tid] {
		return false
	}
	if elem, ok := s.readyIndex[tid]; ok {
		s.ready.Remove(elem)
		delete(s.readyIndex, tid)
		s.pausedInReady[tid] = true
	} else {
		s.pausedInSyscall[tid] = true
	}
	if s.sink != nil {
		s.sink.TaskPaused(tid)
	}
	_ = entry
	return true
}

// PauseTaskErr is PauseTask's error-returning counterpart, distinguishing
// the three reasons a pause can be refused (SPEC_FULL.md §7) so callers
// can errors.Is-switch on the cause instead of getting a bare false.
func (s *Scheduler) PauseTaskErr(tid task.TID) error {
	if s.hasCurrent && tid == s.current {
		return fmt.Errorf("pause task %s: %w", tid, ErrCannotPauseCurrent)
	}
	if _, ok := s.tasks[tid]; !ok {
		return fmt.Errorf("pause task %s: %w", tid, ErrUnknownTask)
	}
	if s.pausedInReady[tid] || s.pausedInSyscall[tid] {
		return fmt.Errorf("pause task %s: %w", tid, ErrAlreadyPaused)
	}
	s.PauseTask(tid)
	return nil
}

// PauseTasks pauses each TID in tids, returning the ones paused.
func (s *Scheduler) PauseTasks(tids []task.TID) []task.TID {
	var paused []task.TID
	for _, tid := range tids {
		if s.PauseTask(tid) {
			paused = append(paused, tid)
		}
	}
	return paused
}

// ResumeTask resumes a previously paused tid.
func (s *Scheduler) ResumeTask(tid task.TID) bool {
	if s.pausedInReady[tid] {
		delete(s.pausedInReady, tid)
		entry := s.tasks[tid]
		s.scheduleReady(tid, entry.pendingValue)
		if s.sink != nil {
			s.sink.TaskResumed(tid)
		}
		return true
	}
	if s.pausedInSyscall[tid] {
		delete(s.pausedInSyscall, tid)
		if s.sink != nil {
			s.sink.TaskResumed(tid)
		}
		return true
	}
	return false
}

// ResumeTaskErr is ResumeTask's error-returning counterpart, distinguishing
// "unknown task" from "not paused" (SPEC_FULL.md §7).
func (s *Scheduler) ResumeTaskErr(tid task.TID) error {
	if _, ok := s.tasks[tid]; !ok {
		return fmt.Errorf("resume task %s: %w", tid, ErrUnknownTask)
	}
	if !s.pausedInReady[tid] && !s.pausedInSyscall[tid] {
		return fmt.Errorf("resume task %s: %w", tid, ErrNotPaused)
	}
	s.ResumeTask(tid)
	return nil
}

// ResumeTasks resumes each TID in tids, returning the ones resumed.
func (s *Scheduler) ResumeTasks(tids []task.TID) []task.TID {
	var resumed []task.TID
	for _, tid := range tids {
		if s.ResumeTask(tid) {
			resumed = append(resumed, tid)
		}
	}
	return resumed
}

// ---- condition variables ----

func (s *Scheduler) notify(name string) {
	entries := s.conditionWait[name]
	if len(entries) == 0 {
		if s.sink != nil {
			s.sink.ConditionWritten(name)
		}
		return
	}
	snapshot := append([]*condRegistration(nil), entries...)
	for _, reg := range snapshot {
		if !reg.predicate() {
			continue
		}
		s.removeCondRegistration(reg)
		delete(s.condByTid, reg.tid)
		s.wakeOrDefer(reg.tid, nil, false)
	}
	if s.sink != nil {
		s.sink.ConditionWritten(name)
	}
}

func (s *Scheduler) removeCondRegistration(reg *condRegistration) {
	for _, name := range reg.names {
		list := s.conditionWait[name]
		for i, e := range list {
			if e == reg {
				s.conditionWait[name] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(s.conditionWait[name]) == 0 {
			delete(s.conditionWait, name)
		}
	}
}

func (s *Scheduler) handleWaitCondition(tid task.TID, names []string, predicate func() bool) {
	if len(names) == 0 {
		panic(fmt.Errorf("%w: task %s", ErrNoConditionNames, tid))
	}
	if predicate() {
		s.scheduleFront(tid, nil)
		return
	}
	reg := &condRegistration{tid: tid, names: names, predicate: predicate}
	for _, name := range names {
		s.conditionWait[name] = append(s.conditionWait[name], reg)
	}
	s.condByTid[tid] = reg
	s.tasks[tid].waiting = StateWaitingCondition
}

// ---- exit-wait ----

func (s *Scheduler) removeExitWaiter(target task.TID, st *exitWaiterState) {
	list := s.exitWait[target]
	for i, e := range list {
		if e.state == st {
			s.exitWait[target] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.exitWait[target]) == 0 {
		delete(s.exitWait, target)
	}
}

func (s *Scheduler) notifyExit(tid task.TID, label string, reason TermReason) {
	logger.Info().Int64("tid", int64(tid)).Str("label", label).Str("reason", string(reason)).Msg("task_terminated")
	if s.sink != nil {
		s.sink.TaskTerminated(tid, label, reason)
	}

	waiters := s.exitWait[tid]
	delete(s.exitWait, tid)

	for _, w := range waiters {
		st := w.state
		switch st.mode {
		case task.WaitAny:
			for other := range st.targets {
				if other == tid {
					continue
				}
				s.removeExitWaiter(other, st)
			}
			delete(s.exitWaiterByTid, st.tid)
			s.scheduleReady(st.tid, tid)
		case task.WaitAll:
			delete(st.targets, tid)
			if len(st.targets) == 0 {
				delete(s.exitWaiterByTid, st.tid)
				s.scheduleReady(st.tid, task.WaitAllResult{Completed: true, Waited: st.originalWaited})
			}
		}
	}
}

func (s *Scheduler) handleWaitTask(callerTid, target task.TID) {
	if _, ok := s.tasks[target]; !ok {
		s.scheduleReady(callerTid, false)
		return
	}
	st := &exitWaiterState{tid: callerTid, mode: task.WaitAny, targets: map[task.TID]bool{target: true}}
	s.exitWait[target] = append(s.exitWait[target], &exitEntry{state: st})
	s.exitWaiterByTid[callerTid] = st
	s.tasks[callerTid].waiting = StateWaitingExit
}

func (s *Scheduler) handleWaitAnyTasks(callerTid task.TID, targets []task.TID) {
	existing := make([]task.TID, 0, len(targets))
	for _, tid := range targets {
		if _, ok := s.tasks[tid]; !ok {
			s.scheduleReady(callerTid, tid)
			return
		}
		existing = append(existing, tid)
	}
	st := &exitWaiterState{tid: callerTid, mode: task.WaitAny, targets: toSet(existing)}
	for _, tid := range existing {
		s.exitWait[tid] = append(s.exitWait[tid], &exitEntry{state: st})
	}
	s.exitWaiterByTid[callerTid] = st
	s.tasks[callerTid].waiting = StateWaitingExit
}

func (s *Scheduler) handleWaitAllTasks(callerTid task.TID, targets []task.TID) {
	existing := make([]task.TID, 0, len(targets))
	for _, tid := range targets {
		if _, ok := s.tasks[tid]; ok {
			existing = append(existing, tid)
		}
	}
	if len(existing) == 0 {
		s.scheduleReady(callerTid, task.WaitAllResult{Completed: false})
		return
	}
	st := &exitWaiterState{tid: callerTid, mode: task.WaitAll, targets: toSet(existing), originalWaited: existing}
	for _, tid := range existing {
		s.exitWait[tid] = append(s.exitWait[tid], &exitEntry{state: st})
	}
	s.exitWaiterByTid[callerTid] = st
	s.tasks[callerTid].waiting = StateWaitingExit
}

func toSet(tids []task.TID) map[task.TID]bool {
	m := make(map[task.TID]bool, len(tids))
	for _, tid := range tids {
		m[tid] = true
	}
	return m
}

// ---- timers and rate ----

func (s *Scheduler) handleWaitDuration(tid task.TID, seconds float64) {
	fireAt := s.clock.Now().Add(time.Duration(seconds * float64(time.Second)))
	s.tasks[tid].waiting = StateWaitingTimer
	s.pushTimer(fireAt, func() {
		if _, ok := s.tasks[tid]; !ok {
			return
		}
		s.wakeOrDefer(tid, nil, true)
	})
}

func (s *Scheduler) handleSleep(tid task.TID, r *task.Rate) {
	now := s.clock.Now()
	delta := r.Period - now.Sub(r.LastTick)
	if delta <= 0 {
		r.LastTick = now
		s.scheduleFront(tid, delta)
		return
	}
	s.tasks[tid].waiting = StateWaitingTimer
	s.pushTimer(now.Add(delta), func() {
		if _, ok := s.tasks[tid]; !ok {
			return
		}
		r.LastTick = s.clock.Now()
		s.wakeOrDefer(tid, delta, true)
	})
}

// CreateRate is the direct-call form of constructing a Rate.
func (s *Scheduler) CreateRate(freqHz float64) *task.Rate {
	return task.NewRate(freqHz, s.clock.Now())
}

// ListAllTIDs returns every currently living TID.
func (s *Scheduler) ListAllTIDs() []task.TID {
	tids := make([]task.TID, 0, len(s.tasks))
	for tid := range s.tasks {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	return tids
}

// CurrentTime returns the scheduler's current notion of wall-clock time.
func (s *Scheduler) CurrentTime() time.Time {
	return s.clock.Now()
}

// CurrentTID returns the TID of the task currently executing, or (0,
// false) if no task is running.
func (s *Scheduler) CurrentTID() (task.TID, bool) {
	return s.current, s.hasCurrent
}

// TaskState reports which wait set tid currently occupies.
func (s *Scheduler) TaskState(tid task.TID) TaskState {
	if s.hasCurrent && tid == s.current {
		return StateRunning
	}
	if s.pausedInReady[tid] {
		return StatePausedInReady
	}
	if s.pausedInSyscall[tid] {
		return StatePausedInSyscall
	}
	entry, ok := s.tasks[tid]
	if !ok {
		return StateUnknown
	}
	if _, inReady := s.readyIndex[tid]; inReady {
		return StateReady
	}
	return entry.waiting
}

// Label returns tid's human-readable label, or "" if unknown.
func (s *Scheduler) Label(tid task.TID) string {
	if entry, ok := s.tasks[tid]; ok {
		return entry.label
	}
	return ""
}

// ReadyLen reports how many tasks currently sit in the ready queue, for
// the ready-queue depth gauge.
func (s *Scheduler) ReadyLen() int {
	return s.ready.Len()
}

// TimerLen reports how many entries are pending in the timer heap
// (including lazily-cancelled ones not yet popped), for the timer-heap
// depth gauge.
func (s *Scheduler) TimerLen() int {
	return len(s.timers)
}
