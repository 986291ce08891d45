// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the raw IPv4 listening socket, the accepted control
// connections and the passive data listeners used by the FTP multiplexer.
// Descriptors are plain integers so they can be watched by the reactor.
package tcp
