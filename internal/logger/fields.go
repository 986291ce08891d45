// File: internal/logger/fields.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logger

import (
	"log/slog"
	"net/netip"
)

// Standard field keys for structured logging.
const (
	KeySlot       = "slot"        // Session table index
	KeyFd         = "fd"          // Socket descriptor
	KeyClientIP   = "client_ip"   // Peer IP address
	KeyClientPort = "client_port" // Peer source port
	KeySessionID  = "session_id"  // Session identifier
	KeyReason     = "reason"      // Teardown or rejection reason
	KeyUsername   = "username"    // Presented user name
	KeyCommand    = "command"     // Control command verb
	KeyActive     = "active"      // Active session count
	KeyCapacity   = "capacity"    // Session table capacity
	KeyAddress    = "address"     // Bound address
	KeyPort       = "port"        // Bound port
	KeyBytes      = "bytes"       // Byte count
	KeyError      = "error"       // Error message
)

// Slot returns a slog.Attr for a session table index
func Slot(i int) slog.Attr {
	return slog.Int(KeySlot, i)
}

// Fd returns a slog.Attr for a socket descriptor
func Fd(fd int) slog.Attr {
	return slog.Int(KeyFd, fd)
}

// Peer returns the client IP and port attributes of addr.
func Peer(addr netip.AddrPort) []any {
	return []any{
		slog.String(KeyClientIP, addr.Addr().String()),
		slog.Int(KeyClientPort, int(addr.Port())),
	}
}

// SessionID returns a slog.Attr for the session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Reason returns a slog.Attr for a teardown reason
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
