// File: internal/ftp/interpreter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ftp

import (
	"bytes"
	"net/netip"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-ftpd/internal/logger"
	"github.com/momentics/hioload-ftpd/internal/session"
	"github.com/momentics/hioload-ftpd/metrics"
	"github.com/momentics/hioload-ftpd/transport/tcp"
)

// MaxLineLen bounds a command line, terminator excluded.
const MaxLineLen = 512

const readBufferSize = 4096

// Result tells the caller what to do with the session after Process.
type Result int

const (
	// ResultContinue keeps the session open.
	ResultContinue Result = iota
	// ResultClose asks for the session to be torn down.
	ResultClose
)

// PassiveListener is the data listener opened by PASV.
type PassiveListener interface {
	session.Handle
	Addr() netip.AddrPort
}

// ListenPassiveFunc opens a passive data listener on ip.
type ListenPassiveFunc func(ip netip.Addr) (PassiveListener, error)

// Interpreter executes control commands for sessions owned by one event loop.
// It keeps a single read buffer and must only be used from that goroutine;
// SetUsers is the exception and may be called from anywhere.
type Interpreter struct {
	users         atomic.Pointer[UserStore]
	passiveIP     netip.Addr
	listenPassive ListenPassiveFunc
	metrics       *metrics.ServerMetrics
	buf           [readBufferSize]byte
}

// Option customizes an Interpreter.
type Option func(*Interpreter)

// WithPassiveIP fixes the address advertised and bound for PASV.
// By default the local address of the control connection is used.
func WithPassiveIP(ip netip.Addr) Option {
	return func(in *Interpreter) {
		in.passiveIP = ip
	}
}

// WithListenPassive replaces the passive listener factory.
func WithListenPassive(fn ListenPassiveFunc) Option {
	return func(in *Interpreter) {
		in.listenPassive = fn
	}
}

// WithMetrics counts commands by verb.
func WithMetrics(m *metrics.ServerMetrics) Option {
	return func(in *Interpreter) {
		in.metrics = m
	}
}

// NewInterpreter creates an interpreter authenticating against users.
func NewInterpreter(users *UserStore, opts ...Option) *Interpreter {
	in := &Interpreter{
		listenPassive: listenPassiveTCP,
	}
	in.users.Store(users)
	for _, o := range opts {
		o(in)
	}
	return in
}

// SetUsers swaps the credential store for subsequent logins.
func (in *Interpreter) SetUsers(users *UserStore) {
	in.users.Store(users)
}

func listenPassiveTCP(ip netip.Addr) (PassiveListener, error) {
	l, err := tcp.ListenPassive(ip)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// connState is the per-session protocol state kept in Session.Protocol.
type connState struct {
	partial      []byte
	discarding   bool
	pending      *queue.Queue
	transferType byte
}

func stateOf(s *session.Session) *connState {
	st, ok := s.Protocol.(*connState)
	if !ok {
		st = &connState{pending: queue.New(), transferType: 'A'}
		s.Protocol = st
	}
	return st
}

// Process performs one read on the control connection and executes every
// complete command it yields. A zero-byte read or a read error closes the session.
func (in *Interpreter) Process(s *session.Session) Result {
	if s.Control == nil {
		return ResultClose
	}
	n, err := s.Control.Read(in.buf[:])
	if n == 0 || err != nil {
		if err != nil {
			logger.Debug("Control read ended", logger.SessionID(s.ID), logger.Err(err))
		}
		return ResultClose
	}

	st := stateOf(s)
	if !in.split(s, st, in.buf[:n]) {
		return ResultClose
	}

	for st.pending.Length() > 0 {
		line := st.pending.Remove().(string)
		if in.execute(s, st, line) == ResultClose {
			return ResultClose
		}
	}
	return ResultContinue
}

// split appends data to the partial line and queues every completed line.
// Overlong lines are answered with 500 and dropped up to their terminator.
// It returns false when a reply could not be written.
func (in *Interpreter) split(s *session.Session, st *connState, data []byte) bool {
	for len(data) > 0 {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			if !st.discarding {
				st.partial = append(st.partial, data...)
				if len(st.partial) > MaxLineLen+1 {
					st.partial = st.partial[:0]
					st.discarding = true
					return reply(s, replyLineTooLong)
				}
			}
			return true
		}

		chunk := data[:nl]
		data = data[nl+1:]
		if st.discarding {
			st.discarding = false
			continue
		}

		line := append(st.partial, chunk...)
		st.partial = st.partial[:0]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) > MaxLineLen {
			if !reply(s, replyLineTooLong) {
				return false
			}
			continue
		}
		st.pending.Add(string(line))
	}
	return true
}

func reply(s *session.Session, text string) bool {
	if s.Control == nil {
		return false
	}
	if _, err := s.Control.Write([]byte(text)); err != nil {
		logger.Debug("Reply write failed", logger.SessionID(s.ID), logger.Err(err))
		return false
	}
	return true
}
