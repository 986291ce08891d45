// File: internal/logger/terminal_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !linux

package logger

// isTerminal disables colors where terminal detection is not wired.
func isTerminal(_ uintptr) bool {
	return false
}
