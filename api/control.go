// File: api/control.go
// Package api defines the Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control exposes published runtime state, debug probes and reload hooks.
type Control interface {
	Stats() map[string]any
	SetState(key string, value any)
	OnReload(fn func())
	RegisterDebugProbe(name string, fn func() any)
}
