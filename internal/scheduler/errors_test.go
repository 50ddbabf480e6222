package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maumercado/task-queue-go/internal/task"
)

func TestScheduler_KillTaskErrReportsUnknownTask(t *testing.T) {
	s := New(newFakeClock(), nil)

	err := s.KillTaskErr(task.TID(999))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestScheduler_KillTaskErrSucceedsOnLiveTask(t *testing.T) {
	s := New(newFakeClock(), nil)
	tid := s.NewTask("t", func(ctl *task.Control) { ctl.WaitDuration(1000) })
	s.Step()

	assert.NoError(t, s.KillTaskErr(tid))
}

func TestScheduler_PauseTaskErrReportsUnknownTask(t *testing.T) {
	s := New(newFakeClock(), nil)

	err := s.PauseTaskErr(task.TID(999))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestScheduler_PauseTaskErrReportsAlreadyPaused(t *testing.T) {
	s := New(newFakeClock(), nil)
	tid := s.NewTask("t", func(ctl *task.Control) { ctl.WaitDuration(1000) })
	s.Step()

	require.NoError(t, s.PauseTaskErr(tid))

	err := s.PauseTaskErr(tid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyPaused))
}

func TestScheduler_PauseTaskErrReportsCannotPauseCurrent(t *testing.T) {
	s := New(newFakeClock(), nil)

	var inner error
	s.NewTask("t", func(ctl *task.Control) {
		inner = s.PauseTaskErr(s.current)
	})
	s.Step()

	require.Error(t, inner)
	assert.True(t, errors.Is(inner, ErrCannotPauseCurrent))
}

func TestScheduler_ResumeTaskErrReportsUnknownTask(t *testing.T) {
	s := New(newFakeClock(), nil)

	err := s.ResumeTaskErr(task.TID(999))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTask))
}

func TestScheduler_ResumeTaskErrReportsNotPaused(t *testing.T) {
	s := New(newFakeClock(), nil)
	tid := s.NewTask("t", func(ctl *task.Control) { ctl.WaitDuration(1000) })
	s.Step()

	err := s.ResumeTaskErr(tid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPaused))
}

func TestScheduler_ResumeTaskErrSucceedsOnPausedTask(t *testing.T) {
	s := New(newFakeClock(), nil)
	tid := s.NewTask("t", func(ctl *task.Control) { ctl.WaitDuration(1000) })
	s.Step()
	require.NoError(t, s.PauseTaskErr(tid))

	assert.NoError(t, s.ResumeTaskErr(tid))
}
