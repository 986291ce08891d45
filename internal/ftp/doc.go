// File: internal/ftp/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package ftp implements the minimal control-channel command interpreter run
// by the multiplexer for every readable session.
//
// One call to Process performs exactly one read on the control socket, splits
// the received bytes into CRLF or LF terminated lines, queues complete lines
// and executes them in arrival order. Partial lines are kept on the session
// until the rest arrives. The interpreter never touches the data plane beyond
// opening a passive listener or recording an active endpoint.
package ftp
