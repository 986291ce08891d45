// File: server/server.go
// Package server
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Server owns the session table and drives the single-goroutine event loop.

package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-ftpd/affinity"
	"github.com/momentics/hioload-ftpd/api"
	"github.com/momentics/hioload-ftpd/internal/logger"
	"github.com/momentics/hioload-ftpd/internal/session"
	"github.com/momentics/hioload-ftpd/metrics"
	"github.com/momentics/hioload-ftpd/reactor"
)

// Construction and lifecycle errors.
var (
	// ErrAlreadyRunning is returned by Serve when the loop is already running or has run.
	ErrAlreadyRunning = errors.New("server already running")
	// ErrNoExecutor is returned by NewServer when no executor is given.
	ErrNoExecutor = errors.New("server requires an executor")
	// ErrNoAcceptor is returned by NewServer when no acceptor is given.
	ErrNoAcceptor = errors.New("server requires an acceptor")
)

// Server multiplexes every control connection over one goroutine.
type Server struct {
	cfg       *Config
	acceptor  Acceptor
	executor  Executor
	poller    reactor.Poller
	ownPoller bool
	metrics   *metrics.ServerMetrics
	observers []Observer

	table    *session.Table
	greeting atomic.Pointer[[]byte]
	active   atomic.Int64
	running  atomic.Bool
	stopping atomic.Bool
}

var _ api.GracefulShutdown = (*Server)(nil)

// NewServer builds a Server around an accepting socket and a command executor.
func NewServer(acc Acceptor, exec Executor, opts ...ServerOption) (*Server, error) {
	if acc == nil {
		return nil, ErrNoAcceptor
	}
	if exec == nil {
		return nil, ErrNoExecutor
	}

	s := &Server{
		cfg:      DefaultConfig(),
		acceptor: acc,
		executor: exec,
	}
	for _, o := range opts {
		o(s)
	}
	if s.cfg.MaxClients < 1 {
		return nil, fmt.Errorf("max clients must be positive, got %d", s.cfg.MaxClients)
	}

	if s.poller == nil {
		p, err := reactor.NewPoller()
		if err != nil {
			return nil, err
		}
		s.poller = p
		s.ownPoller = true
	}

	s.table = session.NewTable(s.cfg.MaxClients, acc.Fd())
	s.SetGreeting(s.cfg.Greeting)
	return s, nil
}

// SetGreeting replaces the greeting for connections accepted from now on.
// Safe for concurrent use.
func (s *Server) SetGreeting(greeting string) {
	b := []byte(greeting)
	s.greeting.Store(&b)
}

// Greeting returns the current greeting.
func (s *Server) Greeting() string {
	return string(*s.greeting.Load())
}

// Active returns the number of sessions currently in the table.
// Safe for concurrent use.
func (s *Server) Active() int {
	return int(s.active.Load())
}

// Capacity returns the maximum number of concurrent sessions.
func (s *Server) Capacity() int {
	return s.cfg.MaxClients
}

// Serve runs the event loop until Shutdown is called, ctx is cancelled, or the
// readiness wait fails. All sessions are closed before it returns; the
// listening socket is left to the caller.
func (s *Server) Serve(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if s.ownPoller {
		defer s.poller.Close()
	}

	// The watcher is joined before the poller is closed so its Wake never
	// races the Close above.
	done := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	defer func() {
		close(done)
		watcher.Wait()
	}()
	go func() {
		defer watcher.Done()
		select {
		case <-ctx.Done():
			_ = s.Shutdown()
		case <-done:
		}
	}()

	if s.cfg.LoopCPU >= 0 {
		release, err := affinity.LockAndPin(s.cfg.LoopCPU)
		if err != nil {
			logger.Warn("Event loop left unpinned", "cpu", s.cfg.LoopCPU, logger.Err(err))
		} else {
			defer release()
			logger.Debug("Event loop pinned", "cpu", s.cfg.LoopCPU)
		}
	}

	defer s.cleanup()
	return s.loop()
}

// Shutdown asks a running Serve to return after the current iteration.
// Safe for concurrent use; calling it before Serve makes Serve return at once.
func (s *Server) Shutdown() error {
	s.stopping.Store(true)
	return s.poller.Wake()
}

// cleanup tears down every remaining session.
func (s *Server) cleanup() {
	n := s.table.Len()
	s.table.CloseAll()
	for i := 0; i < n; i++ {
		s.metrics.RecordClosed(metrics.ReasonShutdown)
	}
	s.publishActive()
}

func (s *Server) publishActive() {
	n := s.table.Len()
	s.active.Store(int64(n))
	s.metrics.SetActive(n)
	for _, fn := range s.observers {
		fn(n, s.cfg.MaxClients)
	}
}
