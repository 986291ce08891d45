// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core session state: control and data handles, login state, data endpoint.

package session

import (
	"io"
	"net/netip"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxUsernameLen bounds the stored username in bytes.
const MaxUsernameLen = 32

// Handle is a closable OS-level descriptor.
type Handle interface {
	Fd() int
	Close() error
}

// Conn is a control connection: a handle that can be read and written.
type Conn interface {
	Handle
	io.Reader
	io.Writer
}

// Session holds the state of one connected client.
// A nil Control or Data means the handle is invalid.
type Session struct {
	ID          string
	Control     Conn
	Data        Handle
	Peer        netip.AddrPort
	ConnectedAt time.Time

	Authenticated bool
	DataEndpoint  netip.AddrPort

	username string

	// Protocol state owned by the command executor; the table only resets it.
	Protocol any
}

// newSession returns a session in its initial state bound to ctrl.
func newSession(ctrl Conn, peer netip.AddrPort) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Control:     ctrl,
		Peer:        peer,
		ConnectedAt: time.Now(),
	}
}

// Username returns the name presented by the client, if any.
func (s *Session) Username() string { return s.username }

// SetUsername stores name, truncated to at most MaxUsernameLen bytes on a
// rune boundary.
func (s *Session) SetUsername(name string) {
	if len(name) > MaxUsernameLen {
		cut := MaxUsernameLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	s.username = name
}

// CloseData closes the data handle if one is open and invalidates it.
func (s *Session) CloseData() error {
	if s.Data == nil {
		return nil
	}
	err := s.Data.Close()
	s.Data = nil
	return err
}

// Free reports whether both handles are invalid.
func (s *Session) Free() bool {
	return s.Control == nil && s.Data == nil
}

// teardown closes both handles if valid and invalidates them together.
// The first close error is returned; both closes are always attempted.
func (s *Session) teardown() error {
	var first error
	if s.Control != nil {
		first = s.Control.Close()
		s.Control = nil
	}
	if err := s.CloseData(); err != nil && first == nil {
		first = err
	}
	return first
}
