// File: server/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event loop: readiness wait, accept, per-session dispatch and teardown.

package server

import (
	"errors"
	"fmt"
	"io"

	"github.com/momentics/hioload-ftpd/api"
	"github.com/momentics/hioload-ftpd/internal/logger"
	"github.com/momentics/hioload-ftpd/metrics"
	"github.com/momentics/hioload-ftpd/reactor"
)

func (s *Server) loop() error {
	for {
		if s.stopping.Load() {
			return nil
		}

		_, err := s.poller.Wait(s.table.Endpoints())
		switch {
		case err == nil:
		case errors.Is(err, reactor.ErrInterrupted):
			s.metrics.RecordWaitInterrupt()
			continue
		case errors.Is(err, reactor.ErrWoken):
			continue
		default:
			logger.Error("Readiness wait failed", logger.Err(err))
			return &api.LoopFatalError{Err: err}
		}

		if s.table.ListenerReady() {
			s.acceptOne()
		}
		s.dispatch()
	}
}

// acceptOne takes at most one pending connection per iteration.
func (s *Server) acceptOne() {
	conn, peer, err := s.acceptor.Accept()
	if err != nil {
		logger.Debug("Accept returned error, continuing", logger.Err(err))
		return
	}
	if conn == nil {
		return
	}

	slot, sess, err := s.table.Add(conn, peer)
	if err != nil {
		_ = conn.Close()
		s.metrics.RecordRejected()
		logger.Warn("Max clients reached, rejecting connection",
			append(logger.Peer(peer), logger.Fd(conn.Fd()), logger.KeyCapacity, s.table.Cap())...)
		return
	}

	logger.Info("Accepted connection",
		append(logger.Peer(peer), logger.Fd(conn.Fd()), logger.Slot(slot), logger.SessionID(sess.ID))...)

	if err := s.greet(conn); err != nil {
		s.metrics.RecordGreetingFailure()
		s.teardown(slot, metrics.ReasonGreeting, err)
		return
	}

	s.metrics.RecordAccepted()
	s.publishActive()
}

func (s *Server) greet(w io.Writer) error {
	g := *s.greeting.Load()
	n, err := w.Write(g)
	if err != nil {
		return err
	}
	if n < len(g) {
		return fmt.Errorf("%w: %d of %d bytes", api.ErrShortGreeting, n, len(g))
	}
	return nil
}

// dispatch walks the active slots in ascending order. A removed slot is
// re-examined because compaction moved the next session into it.
func (s *Server) dispatch() {
	for i := 1; i < s.table.Slots(); i++ {
		rev := s.table.Revents(i)
		if rev == 0 {
			continue
		}

		var reason string
		switch {
		case rev&reactor.EventRead != 0:
			if s.executor.ProcessOneRound(s.table.Session(i)) == StatusContinue {
				continue
			}
			reason = metrics.ReasonClientClose
		case rev&reactor.EventHangup != 0:
			reason = metrics.ReasonHangup
		default:
			reason = metrics.ReasonIOError
		}

		s.teardown(i, reason, nil)
		s.publishActive()
		i--
	}
}

// teardown logs why the session at slot is going away and removes it.
func (s *Server) teardown(slot int, reason string, cause error) {
	sess := s.table.Session(slot)
	fd := -1
	if sess != nil && sess.Control != nil {
		fd = sess.Control.Fd()
	}
	ioErr := &api.SessionIOError{Slot: slot, Fd: fd, Reason: reason, Err: cause}

	args := []any{logger.Slot(slot), logger.Fd(fd), logger.Reason(reason)}
	if sess != nil {
		args = append(args, logger.SessionID(sess.ID))
	}
	if cause != nil {
		logger.Warn("Closing session", append(args, logger.Err(ioErr))...)
	} else {
		logger.Info("Closing session", args...)
	}

	if err := s.table.Remove(slot); err != nil {
		logger.Debug("Session close reported error", append(args, logger.Err(err))...)
	}
	if reason != metrics.ReasonGreeting {
		s.metrics.RecordClosed(reason)
	}
}
