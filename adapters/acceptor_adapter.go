// File: adapters/acceptor_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// AcceptorAdapter exposes a tcp.Listener as the multiplexer's server.Acceptor.

package adapters

import (
	"net/netip"

	"github.com/momentics/hioload-ftpd/internal/session"
	"github.com/momentics/hioload-ftpd/server"
	"github.com/momentics/hioload-ftpd/transport/tcp"
)

// AcceptorAdapter bridges the raw listener to server.Acceptor.
type AcceptorAdapter struct {
	l *tcp.Listener
}

var _ server.Acceptor = (*AcceptorAdapter)(nil)

// NewAcceptorAdapter wraps l. The caller keeps ownership of the listener.
func NewAcceptorAdapter(l *tcp.Listener) *AcceptorAdapter {
	return &AcceptorAdapter{l: l}
}

// Fd returns the listening descriptor.
func (a *AcceptorAdapter) Fd() int {
	return a.l.Fd()
}

// Accept takes one pending connection, or returns a nil conn when none was ready.
func (a *AcceptorAdapter) Accept() (session.Conn, netip.AddrPort, error) {
	c, err := a.l.AcceptOne()
	if err != nil || c == nil {
		// A typed nil must not leak into the interface.
		return nil, netip.AddrPort{}, err
	}
	return c, c.RemoteAddr(), nil
}
