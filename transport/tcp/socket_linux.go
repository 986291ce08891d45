//go:build linux
// +build linux

// File: transport/tcp/socket_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux listener and connection syscalls via golang.org/x/sys/unix.

package tcp

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strconv"

	"github.com/momentics/hioload-ftpd/api"
	"github.com/momentics/hioload-ftpd/internal/logger"
	"golang.org/x/sys/unix"
)

// Listen creates the server's listening socket on address:port.
// Every failure path closes the socket it created before returning a *api.SetupError.
func Listen(address string, port int) (*Listener, error) {
	l, err := listen(address, port, unix.SOMAXCONN)
	if err != nil {
		return nil, err
	}
	logger.Info("Listening", logger.KeyAddress, l.addr.Addr().String(), logger.KeyPort, int(l.addr.Port()))
	return l, nil
}

// ListenPassive opens an ephemeral-port data listener on ip for PASV.
func ListenPassive(ip netip.Addr) (*Listener, error) {
	return listen(ip.String(), 0, passiveBacklog)
}

func listen(address string, port, backlog int) (*Listener, error) {
	hostport := address + ":" + strconv.Itoa(port)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, &api.SetupError{Op: "socket", Addr: hostport, Err: err}
	}

	fail := func(op string, err error) (*Listener, error) {
		_ = unix.Close(fd)
		return nil, &api.SetupError{Op: op, Addr: hostport, Err: err}
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fail("setsockopt(SO_REUSEADDR)", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		return fail("setsockopt(SO_REUSEPORT)", err)
	}

	ip, ok := parseIPv4(address)
	if !ok {
		return fail("address", api.ErrInvalidAddr)
	}
	if port < 0 || port > 65535 {
		return fail("address", fmt.Errorf("port %d out of range", port))
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port, Addr: ip.As4()}); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fail("listen", err)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		return fail("getsockname", err)
	}
	l := &Listener{fd: fd, addr: toAddrPort(sa)}
	l.SetSendTimeout(DefaultSendTimeout)
	return l, nil
}

// AcceptOne accepts a single pending connection.
// It returns (nil, nil) when the call was interrupted by a signal or when
// nothing was actually pending; the caller simply retries on the next readiness.
func (l *Listener) AcceptOne() (*Conn, error) {
	nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_CLOEXEC)
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ECONNABORTED) {
			return nil, nil
		}
		logger.Error("Accept failed", logger.Fd(l.fd), logger.Err(err))
		return nil, fmt.Errorf("accept: %w", err)
	}

	if d := l.SendTimeout(); d > 0 {
		tv := unix.NsecToTimeval(d.Nanoseconds())
		if err := unix.SetsockoptTimeval(nfd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
			_ = unix.Close(nfd)
			logger.Error("Accept failed", logger.Fd(l.fd), logger.Err(err))
			return nil, fmt.Errorf("setsockopt(SO_SNDTIMEO): %w", err)
		}
	}

	c := &Conn{fd: nfd, remote: toAddrPort(sa)}
	if local, err := unix.Getsockname(nfd); err == nil {
		c.local = toAddrPort(local)
	}
	return c, nil
}

// Close closes the listening socket. Repeated calls are no-ops.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(l.fd)
}

// Read performs a single read; it blocks only if no data is pending.
func (c *Conn) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, api.ErrHandleClosed
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return 0, err
		case n == 0 && len(p) > 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes all of p, retrying short writes and signal interruptions.
// When the send timeout expires with bytes still unsent it returns
// api.ErrSendTimeout and the count written so far.
func (c *Conn) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, api.ErrHandleClosed
	}
	written := 0
	for written < len(p) {
		n, err := unix.SendmsgN(c.fd, p[written:], nil, nil, unix.MSG_NOSIGNAL)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) {
				return written, api.ErrSendTimeout
			}
			return written, err
		}
		written += n
	}
	return written, nil
}

// Close closes the connection. Repeated calls are no-ops.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return unix.Close(c.fd)
}

func toAddrPort(sa unix.Sockaddr) netip.AddrPort {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(in4.Addr), uint16(in4.Port))
	}
	return netip.AddrPort{}
}
