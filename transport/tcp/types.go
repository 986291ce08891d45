// File: transport/tcp/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package tcp

import (
	"net/netip"
	"sync/atomic"
	"time"
)

// passiveBacklog is the listen backlog of a PASV data listener; it serves one peer.
const passiveBacklog = 1

// DefaultSendTimeout bounds a blocking write on an accepted connection.
// A peer that stops reading fails its own writes instead of stalling the caller.
const DefaultSendTimeout = 2 * time.Second

// Listener owns a bound, listening IPv4 socket.
type Listener struct {
	fd          int
	addr        netip.AddrPort
	closed      atomic.Bool
	sendTimeout atomic.Int64
}

// SetSendTimeout sets SO_SNDTIMEO for connections accepted from now on.
// Zero or a negative value leaves writes unbounded.
func (l *Listener) SetSendTimeout(d time.Duration) { l.sendTimeout.Store(int64(d)) }

// SendTimeout returns the send timeout applied to accepted connections.
func (l *Listener) SendTimeout() time.Duration { return time.Duration(l.sendTimeout.Load()) }

// Fd returns the listening descriptor.
func (l *Listener) Fd() int { return l.fd }

// Addr returns the effective bound address (the real port when 0 was requested).
func (l *Listener) Addr() netip.AddrPort { return l.addr }

// Conn is an accepted, blocking control connection.
type Conn struct {
	fd     int
	local  netip.AddrPort
	remote netip.AddrPort
	closed atomic.Bool
}

// Fd returns the connection descriptor.
func (c *Conn) Fd() int { return c.fd }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() netip.AddrPort { return c.remote }

// LocalAddr returns the local end of the connection.
func (c *Conn) LocalAddr() netip.AddrPort { return c.local }

// parseIPv4 accepts dotted-decimal IPv4 only, like inet_pton(AF_INET).
func parseIPv4(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(s)
	if err != nil || !ip.Is4() {
		return netip.Addr{}, false
	}
	return ip, true
}
