//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux poll(2)-based reactor implementation and factory.

package reactor

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// pollReactor waits on the caller's endpoints plus a private wake pipe.
type pollReactor struct {
	wakeR   int
	wakeW   int
	scratch []unix.PollFd

	// mu orders Wake against Close so a wake never writes to a closed descriptor.
	mu     sync.Mutex
	closed bool
}

// NewPoller constructs a new poll(2) reactor.
func NewPoller() (Poller, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("reactor pipe: %w", err)
	}
	return &pollReactor{wakeR: p[0], wakeW: p[1]}, nil
}

// Wait blocks until an endpoint is ready, a signal arrives or Wake is called.
func (r *pollReactor) Wait(eps []Endpoint) (int, error) {
	n := len(eps)
	if cap(r.scratch) < n+1 {
		r.scratch = make([]unix.PollFd, n+1, 2*(n+1))
	}
	fds := r.scratch[:n+1]
	for i := range eps {
		eps[i].Revents = 0
		fds[i] = unix.PollFd{Fd: int32(eps[i].Fd), Events: toPoll(eps[i].Events)}
	}
	fds[n] = unix.PollFd{Fd: int32(r.wakeR), Events: unix.POLLIN}

	ready, err := unix.Poll(fds, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, ErrInterrupted
		}
		return 0, fmt.Errorf("poll: %w", err)
	}

	for i := range eps {
		eps[i].Revents = fromPoll(fds[i].Revents)
	}
	if fds[n].Revents != 0 {
		r.drain()
		return ready - 1, ErrWoken
	}
	return ready, nil
}

// Wake writes one byte into the wake pipe. A full pipe already means a wake is pending.
func (r *pollReactor) Wake() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	var b = [1]byte{1}
	for {
		_, err := unix.Write(r.wakeW, b[:])
		switch {
		case err == nil, errors.Is(err, unix.EAGAIN):
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return fmt.Errorf("reactor wake: %w", err)
		}
	}
}

// Close closes the wake pipe.
func (r *pollReactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	errR := unix.Close(r.wakeR)
	errW := unix.Close(r.wakeW)
	return errors.Join(errR, errW)
}

func (r *pollReactor) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(r.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func toPoll(m EventMask) int16 {
	var ev int16
	if m&EventRead != 0 {
		ev |= unix.POLLIN
	}
	return ev
}

func fromPoll(rev int16) EventMask {
	var m EventMask
	if rev&unix.POLLIN != 0 {
		m |= EventRead
	}
	if rev&(unix.POLLERR|unix.POLLNVAL) != 0 {
		m |= EventError
	}
	if rev&unix.POLLHUP != 0 {
		m |= EventHangup
	}
	return m
}
