// Package server levanta el http.Server con timeouts y apagado ordenado.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/TransactionProcessing/SecurityService-sub001/internal/config"
	"github.com/TransactionProcessing/SecurityService-sub001/internal/observability/logger"
)

type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

func New(cfg *config.Config, h http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}
}

// Run escucha hasta que ctx se cancele y luego drena las conexiones abiertas
// durante shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve es Run sobre un listener ya abierto (tests).
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.L().With(logger.Component("http"), logger.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
