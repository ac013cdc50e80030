// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Client-facing messages.
const (
	msgRunning          = "Assignment evaluation API is running!"
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"
	msgMethodNotAllowed = "Method not allowed"
	msgNotFound         = "Not found"
	msgQueueFull        = "Evaluation queue is full"
	msgInternal         = "An error occurred"
)

// Evaluator runs one assignment evaluation. Using an interface keeps the
// handler layer loosely coupled to the service implementation.
type Evaluator interface {
	Evaluate(ctx context.Context, req model.Request) (model.Result, error)
}

// Server wires HTTP routes for the evaluation API.
type Server struct {
	rootHandler     *RootHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	evaluateHandler *EvaluateHandler

	maxBodyBytes int64
	logger       logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(eval Evaluator, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rootHandler = NewRootHandler()
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.evaluateHandler = NewEvaluateHandler(eval, s.maxBodyBytes, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/", s.instrument("root", s.rootHandler.HandleRoot))
	mux.HandleFunc("/evaluate_assignment", s.instrument("evaluate_assignment", s.evaluateHandler.HandleEvaluate))
	mux.HandleFunc("/healthz", s.instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", s.instrument("stats", s.statsHandler.HandleStats))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// instrument applies the middleware chain every API route shares.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(RecoverMiddleware(next, s.logger), endpoint))
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
