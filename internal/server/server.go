// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion pipeline over HTTP.
//
// Routes:
//
//	POST /create_from_openscad  run one conversion
//	GET  /healthz               liveness
//	GET  /metrics               Prometheus exposition, when configured
//
// Every response carries an X-Request-ID header. A client-supplied ID is
// kept; otherwise a UUID is generated.
//
// Implements: docs/ARCHITECTURE § HTTP Surface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/cad-bridge/pkg/types"
)

const (
	// maxBodyBytes bounds the request body of a conversion.
	maxBodyBytes = 4 << 20

	shutdownTimeout = 10 * time.Second
)

// Converter runs one conversion. *pipeline.Pipeline implements it.
type Converter interface {
	CreateFromSource(ctx context.Context, sourceCode, documentName string) types.ConversionOutcome
}

// OutcomeRecorder persists outcomes after each run. *ledger.Store
// implements it.
type OutcomeRecorder interface {
	Record(ctx context.Context, at time.Time, out types.ConversionOutcome) (int64, error)
}

// Options configures a Server. Zero values disable the optional parts.
type Options struct {
	Logger  *zap.Logger
	Ledger  OutcomeRecorder
	Metrics http.Handler
	Version string
}

// Server is the HTTP surface.
type Server struct {
	conv    Converter
	log     *zap.Logger
	ledger  OutcomeRecorder
	metrics http.Handler
	version string
}

// New returns a Server delegating conversions to conv.
func New(conv Converter, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		conv:    conv,
		log:     log,
		ledger:  opts.Ledger,
		metrics: opts.Metrics,
		version: opts.Version,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /create_from_openscad", s.handleCreate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return chain(mux, requestID(), recovery(s.log), requestLogger(s.log))
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("version", s.version))

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	s.log.Info("stopped")
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
