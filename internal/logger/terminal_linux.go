// File: internal/logger/terminal_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build linux

package logger

import "golang.org/x/sys/unix"

// isTerminal checks if the file descriptor is a terminal on Linux
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
