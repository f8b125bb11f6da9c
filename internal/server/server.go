// Copyright (c) 2026 Tablewire
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package server accepts websocket clients and runs one session per connection.
// The same HTTP listener serves Prometheus metrics on /metrics; backend health
// is reported over the gRPC health protocol on a separate listener.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"tablewire/gateway/internal/config"
	"tablewire/gateway/internal/logging"
	"tablewire/gateway/internal/metrics"
	"tablewire/gateway/internal/session"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server owns the listeners and the sessions they spawn.
type Server struct {
	cfg      config.ListenConfig
	backend  session.Backend
	pinger   Pinger
	logger   *pterm.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader

	// sessions tracks hijacked connections, which http.Server.Shutdown does not wait for.
	sessions sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server and session logger.
func WithLogger(l *pterm.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPinger enables backend health checks for the gRPC health service.
func WithPinger(p Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithMetrics serves reg on /metrics and records session metrics into m, so
// collectors created outside the server (the executor's backend observer)
// share one registry.
func WithMetrics(reg *prometheus.Registry, m *metrics.Metrics) Option {
	return func(s *Server) {
		s.registry = reg
		s.metrics = m
	}
}

// New creates a server. Without WithMetrics it gets a registry of its own.
// The registry also carries Go runtime and process collectors.
func New(cfg config.ListenConfig, backend session.Backend, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		backend: backend,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.metrics = metrics.New(s.registry)
	}
	s.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Registry returns the registry served on /metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Handler routes the websocket path and /metrics. Sessions run under ctx.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(s.cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		s.serveWS(ctx, w, r)
	})
	return mux
}

func (s *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusUpgradeRequired)
		return
	}
	// counted before the hijack so Run cannot stop waiting between the two
	s.sessions.Add(1)
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.logger.Debug("upgrade failed", s.logger.Args("remote", r.RemoteAddr, "error", err.Error()))
		return
	}

	sess := session.New(conn, s.backend, session.WithLogger(s.logger), session.WithMetrics(s.metrics))
	_ = sess.Serve(ctx)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Run listens on the configured addresses and blocks until ctx is cancelled
// or a listener fails. Open sessions are closed before Run returns.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}

	if s.cfg.HealthAddr == "" {
		return s.serve(ctx, ln, nil, nil)
	}
	hln, err := net.Listen("tcp", s.cfg.HealthAddr)
	if err != nil {
		ln.Close()
		return errors.Wrapf(err, "listen on %s", s.cfg.HealthAddr)
	}
	return s.serve(ctx, ln, NewHealth(s.pinger, s.logger), hln)
}

// serve runs the HTTP server, and the health server when health is set, on
// the given listeners.
func (s *Server) serve(ctx context.Context, ln net.Listener, health *Health, hln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{
		Handler:           s.Handler(gctx),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	s.logger.Info("gateway listening", s.logger.Args("addr", ln.Addr().String(), "path", s.cfg.Path))
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	if health != nil {
		s.logger.Info("health listening", s.logger.Args("addr", hln.Addr().String()))
		g.Go(func() error { return health.Serve(gctx, hln) })
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(shutdownCtx)
		// Sessions observe gctx and close their transports.
		s.sessions.Wait()
		s.logger.Info("gateway stopped")
		return err
	})

	return g.Wait()
}
