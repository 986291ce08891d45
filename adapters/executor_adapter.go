// File: adapters/executor_adapter.go
// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter implements server.Executor by delegating to the FTP interpreter.

package adapters

import (
	"github.com/momentics/hioload-ftpd/internal/ftp"
	"github.com/momentics/hioload-ftpd/internal/session"
	"github.com/momentics/hioload-ftpd/server"
)

// ExecutorAdapter wraps an ftp.Interpreter to satisfy the server.Executor contract.
type ExecutorAdapter struct {
	in *ftp.Interpreter
}

var _ server.Executor = (*ExecutorAdapter)(nil)

// NewExecutorAdapter constructs a server.Executor around in.
func NewExecutorAdapter(in *ftp.Interpreter) *ExecutorAdapter {
	return &ExecutorAdapter{in: in}
}

// ProcessOneRound runs one interpreter round and maps its result.
func (ea *ExecutorAdapter) ProcessOneRound(s *session.Session) server.Status {
	if ea.in.Process(s) == ftp.ResultClose {
		return server.StatusClose
	}
	return server.StatusContinue
}
