// Package httpserver wraps the standard library HTTP server with the
// lifecycle interface used by the system manager.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jarvisfi/jarvisfi/internal/config"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

// Server runs the API listener as a managed service.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	log             *logger.Logger

	errCh chan error
}

// New builds a server around the given handler.
func New(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
		errCh:           make(chan error, 1),
	}
}

func (s *Server) Name() string { return "http-server" }

// Start begins serving in the background. Listen errors within the first
// moment of startup are returned directly so a bad bind fails fast.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.log.WithField("addr", s.srv.Addr).Info("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
		close(s.errCh)
	}()

	select {
	case err, ok := <-s.errCh:
		if ok && err != nil {
			return err
		}
		return nil
	case <-time.After(100 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

// Err exposes the fatal serve error, if any, after the listener exits.
func (s *Server) Err() <-chan error { return s.errCh }
