// Package worker runs evaluation jobs taken off the queue on a bounded pool
// of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/assessly/internal/adapters/mq/queue"
	"github.com/okian/assessly/internal/domain/model"
	"github.com/okian/assessly/pkg/logger"
	"github.com/okian/assessly/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// ErrPanic marks a job whose processor panicked.
var ErrPanic = errors.New("evaluation panicked")

// Job abstracts what workers read off the queue.
type Job = queue.Job

// Processor evaluates one request.
type Processor interface {
	Process(ctx context.Context, req model.Request) (model.Result, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, req model.Request) (model.Result, error)

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, req model.Request) (model.Result, error) {
	return f(ctx, req)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and replies on each job's channel.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w.processJob(ctx, job)
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob evaluates one job and delivers exactly one Outcome.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	metrics.AddWorkerBusy(1)
	defer func() {
		metrics.AddWorkerBusy(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	jobCtx := job.Ctx
	if jobCtx == nil {
		jobCtx = ctx
	}
	jobCtx = logger.ContextWithRequestID(jobCtx, job.ID)

	var out model.Outcome
	if err := jobCtx.Err(); err != nil {
		// The caller gave up while the job waited in the queue.
		out.Err = err
	} else {
		out.Result, out.Err = w.safeProcess(jobCtx, job.Request)
	}

	if out.Err != nil && model.KindOf(out.Err) == 0 {
		metrics.RecordWorkerError()
		w.logger.Error(jobCtx, "evaluation failed", logger.Error(out.Err))
	}

	if job.Reply == nil {
		return
	}
	select {
	case job.Reply <- out:
	default:
		w.logger.Warn(jobCtx, "reply dropped; no receiver ready")
	}
}

// safeProcess converts a processor panic into ErrPanic.
func (w *InMemoryWorker) safeProcess(ctx context.Context, req model.Request) (res model.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			w.logger.Error(ctx, "evaluation panicked",
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
			res, err = model.Result{}, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return w.processor.Process(ctx, req)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}
	stopped  atomic.Bool

	processed atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count means
// runtime.NumCPU() times a small multiplier.
func NewPool(workerCount int, queue Queue, processor Processor) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	counted := ProcessorFunc(func(ctx context.Context, req model.Request) (model.Result, error) {
		defer pool.processed.Add(1)
		return processor.Process(ctx, req)
	})
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			counted,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handed to the processor.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater refreshes queue gauges while the pool runs.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	lener, ok := p.queue.(interface{ Len(context.Context) int })
	if !ok {
		return
	}
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			lener.Len(ctx)
		}
	}
}

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them, bounded by ctx and an internal ceiling.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}

	return nil
}
