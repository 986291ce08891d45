// File: server/types.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Configuration and collaborator contracts of the connection multiplexer.

package server

import (
	"net/netip"

	"github.com/momentics/hioload-ftpd/internal/session"
)

// DefaultGreeting is sent to every client as soon as it is given a slot.
const DefaultGreeting = "220 Service ready for new user.\r\n"

// DefaultMaxClients is the default session table capacity.
const DefaultMaxClients = 10

// Config holds the multiplexer parameters.
type Config struct {
	MaxClients int    // session slots, the listener slot is extra
	Greeting   string // written once on accept, must include CRLF
	LoopCPU    int    // CPU the loop thread is pinned to, -1 leaves it unpinned
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxClients: DefaultMaxClients,
		Greeting:   DefaultGreeting,
		LoopCPU:    -1,
	}
}

// Status is the executor's verdict after one round on a session.
type Status int

const (
	// StatusContinue keeps the session in the table.
	StatusContinue Status = iota
	// StatusClose asks the multiplexer to tear the session down.
	StatusClose
)

func (s Status) String() string {
	if s == StatusClose {
		return "close"
	}
	return "continue"
}

// Executor processes one round of protocol work for a readable session.
// It may read the control socket once and mutate the session, but must not
// retain the pointer after returning.
type Executor interface {
	ProcessOneRound(s *session.Session) Status
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(s *session.Session) Status

// ProcessOneRound calls f(s).
func (f ExecutorFunc) ProcessOneRound(s *session.Session) Status { return f(s) }

// Acceptor yields connected control sockets from the listening socket.
// Accept returns a nil conn and nil error when nothing was actually pending.
type Acceptor interface {
	Fd() int
	Accept() (session.Conn, netip.AddrPort, error)
}

// Observer is notified with the active session count after every change.
// It runs on the loop goroutine and must not block.
type Observer func(active, capacity int)
