// File: internal/admin/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-ftpd/internal/logger"
)

// Server is the admin HTTP server. It runs beside the event loop and only
// reads state that is safe for concurrent access.
type Server struct {
	server          *http.Server
	addr            string
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
}

// NewServer creates a stopped admin server bound to address:port on Start.
func NewServer(address string, port int, shutdownTimeout time.Duration, state StateProvider, gatherer prometheus.Gatherer) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	addr := net.JoinHostPort(address, strconv.Itoa(port))
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(state, gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
	}
}

// Start serves until ctx is cancelled or the listener fails.
// Returns nil on graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("admin server listen: %w", err)
	}
	logger.Info("Admin server listening", logger.KeyAddress, ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// ctx is already cancelled; shut down on a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin server shutdown error: %w", err)
			logger.Error("Admin server shutdown error", logger.Err(err))
			return
		}
		logger.Info("Admin server stopped")
	})
	return shutdownErr
}
