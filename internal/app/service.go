// Package service provides the evaluation service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/assessly/internal/adapters/mq/queue"
	"github.com/okian/assessly/internal/adapters/mq/worker"
	"github.com/okian/assessly/internal/domain/codeexec"
	"github.com/okian/assessly/internal/domain/feedback"
	"github.com/okian/assessly/internal/domain/mathcheck"
	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"

	"github.com/google/uuid"
)

// Default service configuration constants.
const (
	defaultWorkerMultiplier = 4
	defaultQueueSize        = 1024
)

// Outcome labels used for metrics and statistics.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// MathEvaluator checks a free-text math answer.
type MathEvaluator interface {
	Evaluate(ctx context.Context, text, operation string) (model.Result, error)
}

// CodeEvaluator runs a submitted program.
type CodeEvaluator interface {
	Evaluate(ctx context.Context, code string) (model.Result, error)
}

// FeedbackEvaluator produces free-form feedback for any other assignment.
type FeedbackEvaluator interface {
	Evaluate(ctx context.Context, req model.Request) (model.Result, error)
}

// Service routes assignments to evaluators through a bounded worker pool.
type Service struct {
	mu sync.RWMutex

	// Evaluators
	math     MathEvaluator
	code     CodeEvaluator
	feedback FeedbackEvaluator

	// Core components
	queue *queue.InMemoryQueue
	pool  *worker.Pool

	// Configuration
	workerCount int
	queueSize   int

	// State
	started bool
	stats   counters

	// Logging
	logger logger.Logger
}

// counters are the evaluation totals reported by GetStats.
type counters struct {
	total    atomic.Int64
	ok       atomic.Int64
	failed   atomic.Int64
	rejected atomic.Int64
	math     atomic.Int64
	coding   atomic.Int64
	general  atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending evaluations.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMathEvaluator replaces the math evaluator.
func WithMathEvaluator(e MathEvaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.math = e
		}
	}
}

// WithCodeEvaluator replaces the code evaluator.
func WithCodeEvaluator(e CodeEvaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.code = e
		}
	}
}

// WithFeedbackEvaluator replaces the general feedback evaluator.
func WithFeedbackEvaluator(e FeedbackEvaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.feedback = e
		}
	}
}

// New constructs a new Service with default configuration. Without
// WithFeedbackEvaluator, general assignments fail with a service error.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * defaultWorkerMultiplier,
		queueSize:   defaultQueueSize,
		math:        mathcheck.New(),
		code:        codeexec.New(),
		feedback:    feedback.New(nil),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting evaluation service...")

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.ProcessorFunc(s.Process))
	// Workers outlive ctx; Stop closes the queue and drains it.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop stops accepting evaluations and waits for queued ones to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping evaluation service...")

	err := s.pool.Shutdown(ctx)
	s.started = false

	if err != nil {
		s.logger.Error(ctx, "evaluation service stopped with pending work", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "evaluation service stopped",
		logger.Int64("processed", s.pool.Processed()),
	)
	return nil
}

// Evaluate validates req, hands it to the worker pool and waits for the
// result or for ctx to end.
func (s *Service) Evaluate(ctx context.Context, req model.Request) (model.Result, error) {
	req = req.WithDefaults()
	route := req.Route()

	res, err := s.submit(ctx, req)
	s.record(route, err)
	return res, err
}

func (s *Service) submit(ctx context.Context, req model.Request) (model.Result, error) {
	if err := req.Validate(); err != nil {
		return model.Result{}, err
	}

	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.Result{}, ErrNotStarted
	}

	id := logger.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}

	reply := make(chan model.Outcome, 1)
	job := model.Job{
		ID:      id,
		Request: req,
		Ctx:     ctx,
		Reply:   reply,
	}

	if !q.Enqueue(ctx, job) {
		switch {
		case ctx.Err() != nil:
			return model.Result{}, ctx.Err()
		case q.IsClosed():
			return model.Result{}, fmt.Errorf("%w: %w", ErrNotStarted, queue.ErrClosed)
		default:
			return model.Result{}, fmt.Errorf("%w: %w", ErrBackpressure, queue.ErrFull)
		}
	}

	select {
	case out := <-reply:
		return out.Result, out.Err
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
}

// Process routes one request to its evaluator. Workers call it.
func (s *Service) Process(ctx context.Context, req model.Request) (model.Result, error) {
	start := time.Now()
	route := req.Route()
	defer func() {
		metrics.RecordEvaluationLatency(string(route), float64(time.Since(start).Milliseconds()))
	}()

	switch route {
	case model.RouteMath:
		return s.math.Evaluate(ctx, req.Response, req.Operation)
	case model.RouteCoding:
		return s.code.Evaluate(ctx, req.Response)
	default:
		return s.feedback.Evaluate(ctx, req)
	}
}

// record updates statistics and metrics for one finished evaluation.
func (s *Service) record(route model.Route, err error) {
	s.stats.total.Add(1)
	switch route {
	case model.RouteMath:
		s.stats.math.Add(1)
	case model.RouteCoding:
		s.stats.coding.Add(1)
	default:
		s.stats.general.Add(1)
	}

	outcome := outcomeOK
	switch {
	case err == nil:
		s.stats.ok.Add(1)
	case errors.Is(err, ErrBackpressure):
		outcome = outcomeRejected
		s.stats.rejected.Add(1)
	case model.KindOf(err) != 0:
		outcome = model.KindOf(err).String()
		s.stats.failed.Add(1)
	default:
		outcome = outcomeError
		s.stats.failed.Add(1)
	}
	metrics.RecordEvaluation(string(route), outcome)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	stats["evaluations"] = map[string]int64{
		"total":    s.stats.total.Load(),
		"ok":       s.stats.ok.Load(),
		"failed":   s.stats.failed.Load(),
		"rejected": s.stats.rejected.Load(),
	}
	stats["routes"] = map[string]int64{
		string(model.RouteMath):    s.stats.math.Load(),
		string(model.RouteCoding):  s.stats.coding.Load(),
		string(model.RouteGeneral): s.stats.general.Load(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
		stats["processed"] = s.pool.Processed()
	}

	return stats
}
