// File: internal/session/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity session table with parallel endpoint and session slices.

package session

import (
	"fmt"
	"net/netip"

	"github.com/momentics/hioload-ftpd/api"
	"github.com/momentics/hioload-ftpd/reactor"
)

// ListenerSlot is the index reserved for the listening socket.
const ListenerSlot = 0

// ErrTableFull is returned by Add when every session slot is taken.
var ErrTableFull = fmt.Errorf("session table full: %w", api.ErrOverCapacity)

// Table tracks the listener and up to Cap() sessions.
// Entries [1, Slots()) are active; entries [Slots(), Cap()+1) are zeroed.
type Table struct {
	endpoints []reactor.Endpoint
	sessions  []*Session
	active    int
}

// NewTable allocates a table for capacity sessions plus the listener slot.
func NewTable(capacity, listenerFd int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	t := &Table{
		endpoints: make([]reactor.Endpoint, capacity+1),
		sessions:  make([]*Session, capacity+1),
	}
	t.endpoints[ListenerSlot] = reactor.Endpoint{Fd: listenerFd, Events: reactor.EventRead}
	return t
}

// Endpoints returns the live prefix: the listener followed by every active session.
// The reactor fills Revents in place.
func (t *Table) Endpoints() []reactor.Endpoint {
	return t.endpoints[:t.active+1]
}

// Len returns the number of active sessions.
func (t *Table) Len() int { return t.active }

// Cap returns the maximum number of sessions.
func (t *Table) Cap() int { return len(t.sessions) - 1 }

// Full reports whether no session slot is free.
func (t *Table) Full() bool { return t.active >= t.Cap() }

// Slots returns the number of live entries including the listener.
func (t *Table) Slots() int { return t.active + 1 }

// Session returns the session at slot i, or nil for the listener or an unused slot.
func (t *Table) Session(i int) *Session {
	if i <= ListenerSlot || i > t.active {
		return nil
	}
	return t.sessions[i]
}

// Revents returns the readiness reported for slot i by the last wait.
func (t *Table) Revents(i int) reactor.EventMask {
	if i < 0 || i > t.active {
		return 0
	}
	return t.endpoints[i].Revents
}

// ListenerReady reports whether the listener slot is readable.
func (t *Table) ListenerReady() bool {
	return t.endpoints[ListenerSlot].Ready(reactor.EventRead)
}

// Add registers ctrl in the first slot after the active range and returns
// the slot index and its freshly initialized session.
// The table is left untouched when it is full.
func (t *Table) Add(ctrl Conn, peer netip.AddrPort) (int, *Session, error) {
	if t.Full() {
		return 0, nil, ErrTableFull
	}
	t.active++
	i := t.active
	s := newSession(ctrl, peer)
	t.sessions[i] = s
	t.endpoints[i] = reactor.Endpoint{Fd: ctrl.Fd(), Events: reactor.EventRead}
	return i, s, nil
}

// Remove tears down the session at slot i and compacts the table: every later
// entry moves one position earlier, keeping endpoint and session together,
// and the vacated tail entry is zeroed. The caller must re-examine index i,
// which now holds the session that used to follow it.
func (t *Table) Remove(i int) error {
	if i <= ListenerSlot || i > t.active {
		return fmt.Errorf("remove slot %d of %d: %w", i, t.active, api.ErrInvalidSlot)
	}
	err := t.sessions[i].teardown()

	copy(t.endpoints[i:t.active], t.endpoints[i+1:t.active+1])
	copy(t.sessions[i:t.active], t.sessions[i+1:t.active+1])
	t.endpoints[t.active] = reactor.Endpoint{}
	t.sessions[t.active] = nil
	t.active--
	return err
}

// CloseAll tears down every remaining session and leaves the table empty.
// The listener slot is kept; its socket belongs to the caller.
func (t *Table) CloseAll() {
	for i := 1; i <= t.active; i++ {
		_ = t.sessions[i].teardown()
		t.sessions[i] = nil
		t.endpoints[i] = reactor.Endpoint{}
	}
	t.active = 0
}

// Range calls fn for every active session in slot order until fn returns false.
func (t *Table) Range(fn func(slot int, s *Session) bool) {
	for i := 1; i <= t.active; i++ {
		if !fn(i, t.sessions[i]) {
			return
		}
	}
}
