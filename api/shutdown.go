// File: api/shutdown.go
// Package api defines the graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that can be asked to stop
// from another goroutine. Shutdown returns without waiting for the stop.
type GracefulShutdown interface {
	Shutdown() error
}
