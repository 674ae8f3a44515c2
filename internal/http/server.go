package http

import (
	"context"
	"net"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
)

type Server struct {
	srv *http.Server
}

func NewServer(host, port string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}}
}

func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.srv.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "HTTP server error")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown failed")
	}
	log.Info("HTTP server gracefully stopped")
	return nil
}
