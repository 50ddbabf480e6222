//go:build integration
// +build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maumercado/task-queue-go/internal/host"
	"github.com/maumercado/task-queue-go/internal/logger"
	"github.com/maumercado/task-queue-go/internal/scheduler"
	"github.com/maumercado/task-queue-go/internal/task"
)

func init() {
	logger.Init("error", false)
}

// newDriver builds a scheduler/driver pair on the real wall clock and
// starts its loop, returning a stop func.
func newDriver(t *testing.T) (*host.Driver, func()) {
	t.Helper()
	sched := scheduler.New(host.RealClock{}, nil)
	driver := host.NewDriver(sched, host.RealClock{}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	driver.Start(ctx)

	return driver, func() {
		cancel()
		driver.Stop(context.Background())
	}
}

// Scenario 1 (SPEC_FULL.md §8): hello spawns world; world prints A, sleeps
// 0.2s, prints B, exits; hello waits on world then prints C. Order must be
// A, B, C and the wall-clock span must be at least 0.2s.
func TestIntegration_TimerAndWaiter(t *testing.T) {
	driver, stop := newDriver(t)
	defer stop()

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	done := make(chan struct{})
	start := time.Now()

	driver.NewTask("hello", func(ctl *task.Control) {
		worldTID := ctl.NewTask("world", func(wctl *task.Control) {
			record("A")
			wctl.WaitDuration(0.2)
			record("B")
		})
		ctl.WaitTask(worldTID)
		record("C")
		close(done)
	})
	driver.Wake()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for hello/world scenario")
	}

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"A", "B", "C"}, order)
}

// Scenario 3 (SPEC_FULL.md §8): A, B, C exist; A calls
// KillAllTasksExcept([A's own TID]); only A survives.
func TestIntegration_KillAllExcept(t *testing.T) {
	driver, stop := newDriver(t)
	defer stop()

	blockB := make(chan struct{})
	blockC := make(chan struct{})
	killDone := make(chan []task.TID, 1)

	var aTID task.TID
	aTID = driver.NewTask("A", func(ctl *task.Control) {
		killed := ctl.KillAllTasksExcept([]task.TID{aTID})
		killDone <- killed
	})
	driver.NewTask("B", func(ctl *task.Control) {
		<-blockB
	})
	driver.NewTask("C", func(ctl *task.Control) {
		<-blockC
	})
	_ = blockB
	_ = blockC

	driver.Wake()

	select {
	case <-killDone:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for kill-all-except")
	}

	time.Sleep(50 * time.Millisecond)

	tids := driver.ListAllTIDs()
	assert.Equal(t, []task.TID{aTID}, tids)
}

// Scenario 6 (SPEC_FULL.md §8): a timer-waiter paused mid-wait lands in
// paused_in_ready (not ready) when its timer fires, and only actually runs
// once resumed.
func TestIntegration_PauseResumeTimerWaiter(t *testing.T) {
	driver, stop := newDriver(t)
	defer stop()

	ran := make(chan struct{})
	tid := driver.NewTask("T", func(ctl *task.Control) {
		ctl.WaitDuration(0.3)
		close(ran)
	})
	driver.Wake()

	time.Sleep(100 * time.Millisecond)
	require.True(t, driver.PauseTask(tid))

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, scheduler.StatePausedInReady, driver.TaskState(tid))

	select {
	case <-ran:
		t.Fatal("task ran while still paused")
	default:
	}

	require.True(t, driver.ResumeTask(tid))
	driver.Wake()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resumed task to run")
	}
}
