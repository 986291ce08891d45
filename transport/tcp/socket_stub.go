//go:build !linux
// +build !linux

// File: transport/tcp/socket_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package tcp

import (
	"net/netip"
	"strconv"

	"github.com/momentics/hioload-ftpd/api"
)

// Listen always fails on unsupported platforms.
func Listen(address string, port int) (*Listener, error) {
	return nil, &api.SetupError{Op: "socket", Addr: address + ":" + strconv.Itoa(port), Err: api.ErrNotSupported}
}

// ListenPassive always fails on unsupported platforms.
func ListenPassive(ip netip.Addr) (*Listener, error) {
	return Listen(ip.String(), 0)
}

func (l *Listener) AcceptOne() (*Conn, error) { return nil, api.ErrNotSupported }
func (l *Listener) Close() error { return nil }
func (c *Conn) Read(p []byte) (int, error) { return 0, api.ErrNotSupported }
func (c *Conn) Write(p []byte) (int, error) { return 0, api.ErrNotSupported }
func (c *Conn) Close() error { return nil }
