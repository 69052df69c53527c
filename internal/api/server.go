// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the local playback HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/embyplay/internal/api/middleware"
	v1 "github.com/ManuGH/embyplay/internal/api/v1"
	"github.com/ManuGH/embyplay/internal/health"
	"github.com/ManuGH/embyplay/internal/log"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 90 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config controls the listener and middleware stack.
type Config struct {
	ListenAddr     string
	RateLimit      int
	RateWindow     time.Duration
	TracingService string
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Resolver v1.Resolver
	Items    v1.ItemSource
	Sessions v1.SessionLookup
	History  v1.History
	Health   *health.Manager
}

// Server is the HTTP API server.
type Server struct {
	cfg     Config
	handler http.Handler
}

// New builds the router. History and Health may be nil.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Resolver == nil || deps.Items == nil || deps.Sessions == nil {
		return nil, errors.New("api: resolver, items and sessions are required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager("")
	}
	s := &Server{cfg: cfg}
	s.handler = s.routes(deps)
	return s, nil
}

func (s *Server) routes(deps Deps) http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         true,
	})

	r.Get("/healthz", deps.Health.ServeHealth)
	r.Get("/readyz", deps.Health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	h := v1.NewHandler(deps.Resolver, deps.Items, deps.Sessions, deps.History)
	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: s.cfg.RateLimit,
				WindowSize:   s.cfg.RateWindow,
			}))
		}
		h.Routes(r)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := log.WithComponent("api")
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("API server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}
