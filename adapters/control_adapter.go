// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter combining debug probes, published loop state and reload hooks.

package adapters

import (
	"time"

	"github.com/momentics/hioload-ftpd/api"
	"github.com/momentics/hioload-ftpd/control"
	"github.com/momentics/hioload-ftpd/server"
)

// State keys published by the server observer.
const (
	StateActive   = "sessions.active"
	StateCapacity = "sessions.capacity"
)

// ControlAdapter is the read side used by the admin endpoint.
type ControlAdapter struct {
	state   *control.StateRegistry
	debug   *control.DebugProbes
	reloads *control.ReloadHooks
}

var _ api.Control = (*ControlAdapter)(nil)

// NewControlAdapter creates an adapter with the platform probes registered.
func NewControlAdapter() *ControlAdapter {
	adapter := &ControlAdapter{
		state:   control.NewStateRegistry(),
		debug:   control.NewDebugProbes(),
		reloads: &control.ReloadHooks{},
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

// Observer returns a server observer that publishes session counts.
func (c *ControlAdapter) Observer() server.Observer {
	return func(active, capacity int) {
		c.state.Set(StateActive, active)
		c.state.Set(StateCapacity, capacity)
	}
}

// Stats merges published state and probe output; probe keys get a "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	combined := c.state.Snapshot()
	if t := c.state.Updated(); !t.IsZero() {
		combined["state.updated"] = t.UTC().Format(time.RFC3339Nano)
	}
	for k, v := range c.debug.DumpState() {
		combined["debug."+k] = v
	}
	return combined
}

// SetState publishes a single value.
func (c *ControlAdapter) SetState(key string, value any) {
	c.state.Set(key, value)
}

// RegisterDebugProbe adds a named probe.
func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// OnReload registers fn to run on configuration reload.
func (c *ControlAdapter) OnReload(fn func()) {
	c.reloads.Register(fn)
}

// Reload runs every reload hook synchronously.
func (c *ControlAdapter) Reload() {
	c.reloads.Trigger()
}

// ReloadHooks exposes the hook list for control.WatchFile.
func (c *ControlAdapter) ReloadHooks() *control.ReloadHooks {
	return c.reloads
}
