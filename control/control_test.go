package control

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebugProbes_DumpState(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 2 })
	dp.RegisterProbe("a", func() any { return "one" })
	dp.RegisterProbe("boom", func() any { panic("bad probe") })

	assert.Equal(t, []string{"a", "b", "boom"}, dp.Names())
	state := dp.DumpState()
	assert.Equal(t, "one", state["a"])
	assert.Equal(t, 2, state["b"])
	assert.Equal(t, "probe panic: bad probe", state["boom"])
}

func TestRegisterPlatformProbes(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	state := dp.DumpState()
	assert.Equal(t, runtime.NumCPU(), state["platform.cpus"])
	assert.Contains(t, state, "platform.goroutines")
}

func TestStateRegistry(t *testing.T) {
	sr := NewStateRegistry()
	assert.True(t, sr.Updated().IsZero())

	sr.Set("sessions.active", 3)
	snap := sr.Snapshot()
	snap["sessions.active"] = 99

	assert.Equal(t, 3, sr.Snapshot()["sessions.active"])
	assert.False(t, sr.Updated().IsZero())
}

func TestReloadHooks_TriggerInOrder(t *testing.T) {
	var hooks ReloadHooks
	var order []int
	hooks.Register(func() { order = append(order, 1) })
	hooks.Register(func() { order = append(order, 2) })

	hooks.Trigger()
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 2, hooks.Len())
}

func TestWatchFile_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))
	other := filepath.Join(dir, "other.yaml")

	var fired atomic.Int32
	var hooks ReloadHooks
	hooks.Register(func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchFile(ctx, path, &hooks) }()

	// The watcher is registered asynchronously; keep writing until it notices.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(other, []byte("ignored\n"), 0o600)
		_ = os.WriteFile(path, []byte("a: 2\n"), 0o600)
		return fired.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WatchFile did not stop on cancellation")
	}
}
