package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawn_DoesNotRunBeforeFirstResume(t *testing.T) {
	ran := false
	tk := Spawn(1, "probe", func(ctl *Control) {
		ran = true
	})

	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran, "task body must not execute before its first Resume")

	_, ok := tk.Resume(nil)
	require.False(t, ok)
	assert.True(t, ran)
	assert.NoError(t, tk.ExitErr())
	assert.False(t, tk.Killed())
}

func TestTask_PassYieldsRequest(t *testing.T) {
	tk := Spawn(1, "looper", func(ctl *Control) {
		ctl.Pass()
	})

	req, ok := tk.Resume(nil)
	require.True(t, ok)
	assert.Equal(t, KindPass, req.Kind)

	_, ok = tk.Resume(true)
	require.False(t, ok, "task completes after its single Pass")
}

func TestTask_PanicBecomesExitErr(t *testing.T) {
	tk := Spawn(1, "buggy", func(ctl *Control) {
		panic("boom")
	})

	_, ok := tk.Resume(nil)
	require.False(t, ok)
	require.Error(t, tk.ExitErr())
	assert.Contains(t, tk.ExitErr().Error(), "boom")
	assert.False(t, tk.Killed())
}

func TestTask_KillBeforeFirstResumeNeverRuns(t *testing.T) {
	ran := false
	tk := Spawn(1, "never", func(ctl *Control) {
		ran = true
	})

	tk.Kill()
	assert.False(t, ran)
}

func TestTask_KillWhileBlockedRunsDeferredCleanup(t *testing.T) {
	cleaned := false
	started := make(chan struct{})

	tk := Spawn(1, "cleanup", func(ctl *Control) {
		defer func() { cleaned = true }()
		close(started)
		ctl.Pass()
	})

	go tk.Resume(nil)
	<-started
	tk.Kill()

	assert.True(t, cleaned)
	assert.True(t, tk.Killed())
}

func TestControl_NewTaskRequestCarriesComputation(t *testing.T) {
	var captured Func
	tk := Spawn(1, "spawner", func(ctl *Control) {
		ctl.NewTask("child", func(inner *Control) {})
	})

	req, ok := tk.Resume(nil)
	require.True(t, ok)
	require.Equal(t, KindNewTask, req.Kind)
	assert.Equal(t, "child", req.Label)
	require.NotNil(t, req.Computation)
	captured = req.Computation
	assert.NotNil(t, captured)
}
