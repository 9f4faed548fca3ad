package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/florianilch/stepwise/internal/observability/middleware"
)

// Server serves a Catalog over HTTP.
type Server struct {
	handler http.Handler
	server  *http.Server
	addr    string
}

type options struct {
	apiKey    string
	readiness ReadinessChecker
	logger    *slog.Logger
	registry  *prometheus.Registry
}

// Option configures a Server.
type Option func(*options)

// WithAPIKey requires requests to /v1 to authenticate with the given bearer key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithReadiness sets the checker behind /health/readiness. Defaults to always ready.
func WithReadiness(checker ReadinessChecker) Option {
	return func(o *options) { o.readiness = checker }
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry sets the registry metrics are recorded in and served from.
// Defaults to a fresh registry per server.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// New creates a server for catalog.
func New(catalog Catalog, opts ...Option) *Server {
	o := options{
		readiness: alwaysReady{},
		logger:    slog.Default(),
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := newMetrics(o.registry)
	api := func(h http.Handler) http.Handler {
		return applyMiddlewares(h, BearerAuth(o.apiKey), RequireBeta)
	}

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, m.instrument(name, h))
	}

	route("GET /v1/assistants", "list_assistants", api(listAssistantsHandler(catalog)))
	route("GET /v1/assistants/{assistant_id}", "get_assistant", api(getAssistantHandler(catalog)))
	route("GET /v1/threads/{thread_id}/runs/{run_id}/steps", "list_run_steps", api(listRunStepsHandler(catalog)))
	route("GET /v1/threads/{thread_id}/runs/{run_id}/steps/{step_id}", "get_run_step", api(getRunStepHandler(catalog)))

	mux.Handle("GET /health/liveness", livenessHandler())
	mux.Handle("GET /health/readiness", readinessHandler(o.readiness))
	mux.Handle("GET /metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))

	handler := applyMiddlewares(mux,
		Recovery,
		middleware.RequestIDGeneration,
		middleware.Logging(o.logger),
		middleware.TraceContextExtraction,
		middleware.RequestIDPropagation,
	)

	return &Server{
		handler: handler,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the address the server listens on once started.
func (s *Server) Addr() string {
	return s.addr
}

// Start listens on addr and serves in the background. The returned channel
// receives a runtime error, or is closed when the server stops cleanly.
func (s *Server) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.addr = listener.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.InfoContext(ctx, "server listening", "addr", s.addr)
	return errCh, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
