// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/hioload-ftpd/metrics"
	"github.com/momentics/hioload-ftpd/reactor"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithGreeting overrides the greeting written to new clients.
func WithGreeting(greeting string) ServerOption {
	return func(s *Server) {
		s.cfg.Greeting = greeting
	}
}

// WithMaxClients sets the session table capacity.
func WithMaxClients(n int) ServerOption {
	return func(s *Server) {
		s.cfg.MaxClients = n
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.ServerMetrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithPoller replaces the platform readiness reactor. The caller keeps ownership.
func WithPoller(p reactor.Poller) ServerOption {
	return func(s *Server) {
		s.poller = p
	}
}

// WithObserver registers a callback for active session count changes.
func WithObserver(fn Observer) ServerOption {
	return func(s *Server) {
		s.observers = append(s.observers, fn)
	}
}

// WithLoopCPU pins the event loop's OS thread to cpu while Serve runs.
// Pinning failures are logged and the loop runs unpinned.
func WithLoopCPU(cpu int) ServerOption {
	return func(s *Server) {
		s.cfg.LoopCPU = cpu
	}
}
