// Package httpserver exposes sessions over a JSON API: create a session,
// paste a source document and a template, extract addresses, generate a
// reply per address and hand it to a delivery provider.
package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/reply-composer/internal/provider"
	"github.com/shineum/reply-composer/internal/session"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// context is cancelled.
const shutdownTimeout = 10 * time.Second

// Config holds the dependencies of the API server.
type Config struct {
	Sessions *session.Store
	Provider provider.Provider
	// From and Subject are used for drafts delivered through Provider.
	From    string
	Subject string
	Logger  *slog.Logger
	// TLSConfig, when set, makes Serve terminate TLS.
	TLSConfig *tls.Config
}

// Server is the JSON API server.
type Server struct {
	sessions *session.Store
	provider provider.Provider
	from     string
	subject  string
	logger   *slog.Logger
	tls      *tls.Config
	router   chi.Router

	mu   sync.Mutex
	addr net.Addr
}

// New creates a Server with its routes registered.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		sessions: cfg.Sessions,
		provider: cfg.Provider,
		from:     cfg.From,
		subject:  cfg.Subject,
		logger:   logger,
		tls:      cfg.TLSConfig,
		router:   r,
	}
	s.registerRoutes()
	return s
}

// Router returns the server's router.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler so the server can be used directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", ln.Addr().String(), "tls", s.tls != nil)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http api: %w", err)
	}
	return nil
}

// Addr returns the listening address, or "" before Serve was called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}
