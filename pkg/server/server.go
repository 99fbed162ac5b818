// Package server exposes the statistics service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/gridstat/pkg/gridio"
	"github.com/Sumatoshi-tech/gridstat/pkg/observability"
	"github.com/Sumatoshi-tech/gridstat/pkg/service"
	"github.com/Sumatoshi-tech/gridstat/pkg/stats"
	"github.com/Sumatoshi-tech/gridstat/pkg/version"
)

// Route paths.
const (
	PathStatistics = "/v1/statistics"
	PathStatistic  = "/v1/statistic"
	PathQuantile   = "/v1/quantile"
	PathMissing    = "/v1/missing"
	PathVersion    = "/v1/version"
	PathHealth     = "/healthz"
	PathReady      = "/readyz"
	PathMetrics    = "/metrics"
)

const (
	defaultBodyLimit       = 16 << 20
	defaultShutdownTimeout = 10 * time.Second
	contentTypeJSON        = "application/json"
)

// Options configures the HTTP server.
type Options struct {
	Addr            string
	BodyLimit       int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Deps holds injectable dependencies. Zero-value fields use defaults.
type Deps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Tracer creates one server span per request. Nil uses a no-op tracer.
	Tracer trace.Tracer

	// RED records per-route request metrics. Nil disables them.
	RED *observability.REDMetrics

	// MetricsHandler serves /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	// ReadyChecks are evaluated by /readyz after the built-in request schema
	// and shutdown checks.
	ReadyChecks []observability.ReadyCheck
}

// Readiness check names reported by /readyz.
const (
	ReadyCheckSchema = "request_schema"
	ReadyCheckServer = "server"
)

// ErrDraining is reported by /readyz once graceful shutdown has begun.
var ErrDraining = errors.New("server is shutting down")

// Server is the gridstat HTTP API.
type Server struct {
	svc      *service.Service
	logger   *slog.Logger
	handler  http.Handler
	opts     Options
	draining atomic.Bool
}

// New builds the server and its routes.
func New(svc *service.Service, deps Deps, opts Options) *Server {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	srv := &Server{svc: svc, logger: logger, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+PathStatistics, srv.handleStatistics)
	mux.HandleFunc("POST "+PathStatistic, srv.compute(svc.Statistic))
	mux.HandleFunc("POST "+PathQuantile, srv.compute(svc.Quantile))
	mux.HandleFunc("POST "+PathMissing, srv.compute(svc.Missing))
	mux.HandleFunc("GET "+PathVersion, handleVersion)
	mux.Handle("GET "+PathHealth, observability.HealthHandler())
	mux.Handle("GET "+PathReady, observability.ReadyHandler(srv.readyChecks(deps.ReadyChecks)...))

	if deps.MetricsHandler != nil {
		mux.Handle("GET "+PathMetrics, deps.MetricsHandler)
	}

	srv.handler = observability.HTTPMiddleware(tracer, deps.RED, mux)

	return srv
}

// Handler returns the root handler with tracing middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on Options.Addr and serves until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "http server listening", "addr", listener.Addr().String())

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.draining.Store(true)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		return fmt.Errorf("shutdown http server: %w", shutdownErr)
	}

	s.logger.InfoContext(ctx, "http server stopped")

	return nil
}

func (s *Server) readyChecks(extra []observability.ReadyCheck) []observability.ReadyCheck {
	checks := []observability.ReadyCheck{
		{Name: ReadyCheckSchema, Check: gridio.CheckSchema},
		{Name: ReadyCheckServer, Check: func(context.Context) error {
			if s.draining.Load() {
				return ErrDraining
			}

			return nil
		}},
	}

	return append(checks, extra...)
}

type computeFunc func(context.Context, *gridio.Request) (*gridio.Result, error)

func (s *Server) compute(fn computeFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, hr *http.Request) {
		ctx := hr.Context()

		req, status, err := s.decodeRequest(rw, hr)
		if err != nil {
			s.writeError(ctx, rw, status, err)

			return
		}

		res, err := fn(ctx, req)
		if err != nil {
			s.writeError(ctx, rw, statusFor(err), err)

			return
		}

		s.writeJSON(ctx, rw, http.StatusOK, res)
	}
}

func (s *Server) decodeRequest(rw http.ResponseWriter, hr *http.Request) (*gridio.Request, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(rw, hr.Body, s.opts.BodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}

		return nil, http.StatusBadRequest, fmt.Errorf("read request body: %w", err)
	}

	var req *gridio.Request

	if isYAML(hr.Header.Get("Content-Type")) {
		req, err = gridio.DecodeYAML(body)
	} else {
		req, err = gridio.DecodeJSON(body)
	}

	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	return req, http.StatusOK, nil
}

func (s *Server) handleStatistics(rw http.ResponseWriter, hr *http.Request) {
	list := stats.Statistics()

	names := make([]string, len(list))
	for i, stat := range list {
		names[i] = stat.String()
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, map[string][]string{"statistics": names})
}

func handleVersion(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", contentTypeJSON)

	_ = json.NewEncoder(rw).Encode(map[string]string{
		"version": version.Version,
		"commit":  version.Commit,
		"date":    version.Date,
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stats.ErrUnknownStatistic),
		errors.Is(err, stats.ErrQuantileRequired),
		errors.Is(err, service.ErrInvalidQuantile),
		errors.Is(err, service.ErrNoInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(ctx context.Context, rw http.ResponseWriter, status int, err error) {
	s.logger.DebugContext(ctx, "request failed", "status", status, "error", err)
	s.writeJSON(ctx, rw, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", contentTypeJSON)
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}

func isYAML(contentType string) bool {
	return strings.Contains(contentType, "yaml")
}
