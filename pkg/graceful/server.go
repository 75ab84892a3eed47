// Package graceful runs the operational HTTP surface of the bot, the
// health probe and the Prometheus metrics, draining in-flight requests on
// shutdown.
package graceful

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// Server serves ops endpoints until its context is cancelled.
type Server struct {
	srv          *http.Server
	log          *slog.Logger
	drainTimeout time.Duration
}

// NewServer builds the ops server on addr. drainTimeout bounds how long
// shutdown waits for in-flight probes and scrapes.
func NewServer(log *slog.Logger, addr string, handler http.Handler, drainTimeout time.Duration) *Server {
	if log == nil {
		log = slog.Default()
	}
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log:          log,
		drainTimeout: drainTimeout,
	}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails. On
// cancellation the server drains for at most the drain timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		s.log.Info("ops server listening", slog.String("addr", s.srv.Addr))
		listenErr <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ops server: %w", err)
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	s.log.Info("draining ops server", slog.Duration("timeout", s.drainTimeout))
	if err := s.srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return nil
}
