package host

import (
	"context"
	"sync"
	"time"

	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/scheduler"
	"github.com/maumercado/task-queue-go/internal/task"
)

// State mirrors the worker pool's lifecycle states (SPEC_FULL.md §12),
// adapted from a pool of concurrent workers to a single scheduler loop
// goroutine: the scheduler forbids parallel task execution, so there is
// exactly one loop to start, pause, or stop rather than a worker count.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "idle"
	}
}

// Driver runs a *scheduler.Scheduler's Step/TimerStep loop on its own
// goroutine behind a single mutex (SPEC_FULL.md §5/§12's "wrap the
// scheduler behind a single mutex plus a condition-variable signal... all
// task code still runs under the lock"). d.mu guards both the Driver's own
// lifecycle state and every call into d.sched: the loop goroutine takes it
// for the duration of each TimerStep/Step pass in runPass, and every
// exported method that touches the scheduler (NewTask, KillTask,
// PauseTask, ...) takes it too, so the two can never run concurrently.
// Rather than a bare sync.Cond, the wait-for-work signal is a buffered
// wakeCh plus a ticker, in the same channel-driven idiom as the
// pause/resume/stop signaling below — functionally the condition variable
// the spec asks for, expressed with channels instead of sync.Cond.
// Grounded on internal/worker/pool.go's State machine and channel-based
// Start/Stop/Pause/Resume, with one loop instead of a worker pool.
type Driver struct {
	sched *scheduler.Scheduler
	clock scheduler.Clock
	tick  time.Duration

	mu    sync.Mutex
	state State

	pauseCh  chan struct{}
	resumeCh chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}

	wakeCh chan struct{}
}

// NewDriver wraps sched with a loop that polls at most every tick, or
// sooner whenever Wake is called (e.g. right after a new task is spawned
// through the control API, so it doesn't wait out a full tick to run).
func NewDriver(sched *scheduler.Scheduler, clock scheduler.Clock, tick time.Duration) *Driver {
	return &Driver{
		sched:  sched,
		clock:  clock,
		tick:   tick,
		state:  StateIdle,
		wakeCh: make(chan struct{}, 1),
	}
}

// Scheduler returns the wrapped scheduler. It exists for callers that
// construct a scheduler, hand it to NewDriver, and never start the loop
// (tests exercising Step/Run synchronously, or CreateRate/NewCondVar
// registration that happens once before Start). Once the loop is
// running, mutating or inspecting the scheduler through this accessor
// races the loop goroutine — use the Driver's own locked methods
// (NewTask, KillTask, PauseTask, ListAllTIDs, TaskState, ...) instead.
func (d *Driver) Scheduler() *scheduler.Scheduler {
	return d.sched
}

// NewTask spawns fn under the scheduler's lock and wakes the loop so it
// runs promptly instead of waiting for the next tick.
func (d *Driver) NewTask(label string, fn task.Func) task.TID {
	d.mu.Lock()
	tid := d.sched.NewTask(label, fn)
	d.mu.Unlock()
	d.Wake()
	return tid
}

// KillTask terminates tid if alive, under the scheduler's lock.
func (d *Driver) KillTask(tid task.TID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.KillTask(tid)
}

// KillTaskErr is KillTask's error-returning counterpart.
func (d *Driver) KillTaskErr(tid task.TID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.KillTaskErr(tid)
}

// KillAllTasksExcept terminates every task not named in except, under the
// scheduler's lock.
func (d *Driver) KillAllTasksExcept(except []task.TID) []task.TID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.KillAllTasksExcept(except)
}

// PauseTask pauses tid, under the scheduler's lock.
func (d *Driver) PauseTask(tid task.TID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.PauseTask(tid)
}

// PauseTaskErr is PauseTask's error-returning counterpart.
func (d *Driver) PauseTaskErr(tid task.TID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.PauseTaskErr(tid)
}

// ResumeTask resumes a previously paused tid, under the scheduler's lock,
// and wakes the loop so the resumed task runs promptly.
func (d *Driver) ResumeTask(tid task.TID) bool {
	d.mu.Lock()
	ok := d.sched.ResumeTask(tid)
	d.mu.Unlock()
	if ok {
		d.Wake()
	}
	return ok
}

// ResumeTaskErr is ResumeTask's error-returning counterpart.
func (d *Driver) ResumeTaskErr(tid task.TID) error {
	d.mu.Lock()
	err := d.sched.ResumeTaskErr(tid)
	d.mu.Unlock()
	if err == nil {
		d.Wake()
	}
	return err
}

// ListAllTIDs returns every currently living TID, under the scheduler's
// lock.
func (d *Driver) ListAllTIDs() []task.TID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.ListAllTIDs()
}

// TaskState reports which wait set tid currently occupies, under the
// scheduler's lock.
func (d *Driver) TaskState(tid task.TID) scheduler.TaskState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.TaskState(tid)
}

// Label returns tid's human-readable label, under the scheduler's lock.
func (d *Driver) Label(tid task.TID) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.Label(tid)
}

// ReadyLen reports the ready-queue depth, under the scheduler's lock.
func (d *Driver) ReadyLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.ReadyLen()
}

// TimerLen reports the timer-heap depth, under the scheduler's lock.
func (d *Driver) TimerLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.TimerLen()
}

// Wake nudges the loop to run a Step/TimerStep pass immediately instead of
// waiting for the next tick.
func (d *Driver) Wake() {
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

// Start begins the driver's loop goroutine.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	if d.state == StateRunning || d.state == StatePaused {
		d.mu.Unlock()
		return
	}
	d.state = StateRunning
	d.pauseCh = make(chan struct{})
	d.resumeCh = make(chan struct{})
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.mu.Unlock()

	go d.loop(ctx)

	logger.Info().Dur("tick", d.tick).Msg("scheduler driver started")
}

// Stop signals the loop to exit and waits for it to finish, or for ctx to
// be done, whichever comes first.
func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.state == StateIdle || d.state == StateShuttingDown {
		doneCh := d.doneCh
		d.mu.Unlock()
		if doneCh != nil {
			<-doneCh
		}
		return
	}
	d.state = StateShuttingDown
	stopCh := d.stopCh
	doneCh := d.doneCh
	d.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		logger.Info().Msg("scheduler driver stopped")
		d.mu.Lock()
		d.state = StateIdle
		d.mu.Unlock()
	case <-ctx.Done():
		logger.Warn().Msg("scheduler driver shutdown canceled")
	}
}

// Pause stops the loop from advancing the scheduler until Resume is
// called. Tasks already registered in wait sets stay exactly where they
// are; only the passage of ticks stops.
func (d *Driver) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateRunning {
		d.state = StatePaused
		close(d.pauseCh)
		d.pauseCh = make(chan struct{})
		logger.Info().Msg("scheduler driver paused")
	}
}

// Resume continues the loop after a Pause.
func (d *Driver) Resume() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePaused {
		d.state = StateRunning
		close(d.resumeCh)
		d.resumeCh = make(chan struct{})
		logger.Info().Msg("scheduler driver resumed")
	}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) loop(ctx context.Context) {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	d.mu.Lock()
	pauseCh, stopCh := d.pauseCh, d.stopCh
	d.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-pauseCh:
			d.mu.Lock()
			resumeCh, nextPauseCh := d.resumeCh, d.pauseCh
			d.mu.Unlock()
			select {
			case <-resumeCh:
				pauseCh = nextPauseCh
			case <-stopCh:
				return
			case <-ctx.Done():
				return
			}
			continue
		case <-d.wakeCh:
		case <-ticker.C:
		}

		d.runPass()
	}
}

// runPass fires any due timers and drains the ready queue once, holding
// d.mu for the whole pass so it can never interleave with a concurrent
// NewTask/KillTask/PauseTask/... call from another goroutine.
func (d *Driver) runPass() {
	now := d.clock.Now()
	d.mu.Lock()
	d.sched.TimerStep(now)
	d.sched.Step()
	d.mu.Unlock()
}
