// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api
// Author: momentics <momentics@gmail.com>
//
// Error taxonomy shared by the listener, the readiness reactor and the multiplexer.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the server.
var (
	ErrInterrupted   = errors.New("interrupted by signal")
	ErrOverCapacity  = errors.New("session table at capacity")
	ErrNotSupported  = errors.New("operation not supported on this platform")
	ErrInvalidAddr   = errors.New("invalid IPv4 address")
	ErrInvalidSlot   = errors.New("invalid session slot")
	ErrHandleClosed  = errors.New("handle is closed")
	ErrShortGreeting = errors.New("greeting partially written")
	ErrSendTimeout   = errors.New("send timed out, peer not reading")
)

// ErrorCode represents specific error conditions in the server.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeSetup
	ErrCodeInterrupted
	ErrCodeOverCapacity
	ErrCodeSessionIO
	ErrCodeLoopFatal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeSetup:
		return "setup"
	case ErrCodeInterrupted:
		return "interrupted"
	case ErrCodeOverCapacity:
		return "over_capacity"
	case ErrCodeSessionIO:
		return "session_io"
	case ErrCodeLoopFatal:
		return "loop_fatal"
	default:
		return "unknown"
	}
}

// Coder is implemented by every typed error of this package.
type Coder interface {
	Code() ErrorCode
}

// CodeOf extracts the ErrorCode carried by err, if any.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeOK
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	switch {
	case errors.Is(err, ErrInterrupted):
		return ErrCodeInterrupted
	case errors.Is(err, ErrOverCapacity):
		return ErrCodeOverCapacity
	}
	return ErrCodeLoopFatal
}

// SetupError reports a failure while preparing the listening socket.
// The process does not start serving when one is returned.
type SetupError struct {
	Op   string // socket, setsockopt(SO_REUSEADDR), address, bind, listen, ...
	Addr string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("setup %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("setup %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
func (e *SetupError) Code() ErrorCode { return ErrCodeSetup }

// SessionIOError describes why a single session was torn down.
// It never propagates beyond the session it names.
type SessionIOError struct {
	Slot   int
	Fd     int
	Reason string
	Err    error
}

func (e *SessionIOError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("session slot %d (fd %d): %s", e.Slot, e.Fd, e.Reason)
	}
	return fmt.Sprintf("session slot %d (fd %d): %s: %v", e.Slot, e.Fd, e.Reason, e.Err)
}

func (e *SessionIOError) Unwrap() error { return e.Err }
func (e *SessionIOError) Code() ErrorCode { return ErrCodeSessionIO }

// LoopFatalError is returned by the event loop when the readiness wait
// itself fails with anything but a signal interruption.
type LoopFatalError struct {
	Err error
}

func (e *LoopFatalError) Error() string { return fmt.Sprintf("event loop terminated: %v", e.Err) }
func (e *LoopFatalError) Unwrap() error { return e.Err }
func (e *LoopFatalError) Code() ErrorCode { return ErrCodeLoopFatal }
