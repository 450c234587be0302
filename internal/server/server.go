package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"ecclesia/internal/app"
)

const defaultShutdownTimeout = 5 * time.Second

type Options struct {
	Addr string
	// AllowedOrigins of nil allows every origin.
	AllowedOrigins []string
}

type Server struct {
	service *app.Service
	opts    Options
}

func New(service *app.Service, opts Options) *Server {
	return &Server{service: service, opts: opts}
}

func (s *Server) Handler() http.Handler {
	return NewRouter(s.service, s.opts.AllowedOrigins)
}

// Run serves until ctx is done, then shuts down gracefully. ready is called
// with the base URL once the listener is open.
func (s *Server) Run(ctx context.Context, ready func(url string)) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	url := "http://" + ln.Addr().String()
	slog.Info("Server ready", "url", url)
	if ready != nil {
		ready(url)
	}

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
