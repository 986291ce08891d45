// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor interface for the single-threaded event loop.

package reactor

import (
	"errors"
	"strings"

	"github.com/momentics/hioload-ftpd/api"
)

// EventMask is a set of readiness conditions.
type EventMask int16

const (
	EventRead EventMask = 1 << iota
	EventError
	EventHangup
)

func (m EventMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&EventRead != 0 {
		parts = append(parts, "read")
	}
	if m&EventError != 0 {
		parts = append(parts, "error")
	}
	if m&EventHangup != 0 {
		parts = append(parts, "hangup")
	}
	return strings.Join(parts, "|")
}

// Endpoint is one watched descriptor. The caller owns the slice of endpoints;
// Wait only rewrites Revents.
type Endpoint struct {
	Fd      int
	Events  EventMask
	Revents EventMask
}

// Ready reports whether any of the conditions in mask fired on the last Wait.
func (e *Endpoint) Ready(mask EventMask) bool {
	return e.Revents&mask != 0
}

var (
	// ErrInterrupted is returned by Wait when a signal interrupted the wait.
	ErrInterrupted = api.ErrInterrupted

	// ErrWoken is returned by Wait after Wake was called.
	ErrWoken = errors.New("reactor: woken")
)

// Poller blocks until at least one endpoint is ready.
type Poller interface {
	// Wait blocks without timeout and fills Revents of every endpoint.
	// It returns the number of ready endpoints.
	Wait(eps []Endpoint) (int, error)

	// Wake makes a pending or the next Wait return ErrWoken. Safe for concurrent use.
	Wake() error

	// Close releases the reactor's own descriptors.
	Close() error
}
