// Package dispatch coordinates asynchronous execution of scan runs across a
// bounded worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/veriscan/veriscan/internal/domain/scanning"
	"github.com/veriscan/veriscan/internal/infra/adapters"
	"github.com/veriscan/veriscan/pkg/common"
	"github.com/veriscan/veriscan/pkg/common/logger"
)

// ErrQueueFull is returned by Submit when the task queue has no capacity.
// The API surfaces it as back-pressure instead of spawning unbounded work.
var ErrQueueFull = errors.New("dispatch queue is full")

// ErrStopped is returned by Submit after the dispatcher has been stopped.
var ErrStopped = errors.New("dispatcher is stopped")

// RunStore is the minimal store contract the dispatcher needs.
type RunStore interface {
	StartRun(ctx context.Context, id uuid.UUID) (scanning.Run, error)
	CompleteRun(ctx context.Context, id uuid.UUID) (scanning.Run, error)
	FailRun(ctx context.Context, id uuid.UUID, reason string) (scanning.Run, error)
	AddLog(ctx context.Context, id uuid.UUID, message string) error
	AddFindings(ctx context.Context, runID uuid.UUID, records []scanning.FindingRecord) ([]scanning.Finding, error)
}

// JobSpool persists job descriptors and results for a run.
type JobSpool interface {
	EnqueueRun(ctx context.Context, job scanning.JobDescriptor) error
	WriteResults(ctx context.Context, runID uuid.UUID, result scanning.ScanResult) error
}

// Archiver receives terminal runs for durable storage. Optional.
type Archiver interface {
	ArchiveRun(ctx context.Context, run scanning.Run, findings []scanning.Finding) error
}

// Config sizes the worker pool.
type Config struct {
	// Workers is the number of concurrent scan workers.
	Workers int
	// QueueCapacity bounds how many accepted runs may wait for a worker.
	QueueCapacity int
	// ScanDuration is the simulated scan execution time.
	ScanDuration time.Duration
}

// Dispatcher owns the worker pool that executes runs. Each accepted run gets
// a cancellation token consulted between steps, so POST /runs/{id}/cancel
// stops in-flight work instead of only flipping the stored status.
type Dispatcher struct {
	store    RunStore
	spool    JobSpool
	registry *adapters.Registry
	archiver Archiver

	workers      int
	scanDuration time.Duration

	taskCh   chan scanning.JobDescriptor
	stopCh   chan struct{}
	stopOnce sync.Once
	workerWg sync.WaitGroup

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc

	logger *logger.Logger
	tracer trace.Tracer
}

// NewDispatcher creates a dispatcher with the given pool sizing. The
// archiver may be nil.
func NewDispatcher(
	cfg Config,
	store RunStore,
	spool JobSpool,
	registry *adapters.Registry,
	archiver Archiver,
	log *logger.Logger,
	tracer trace.Tracer,
) *Dispatcher {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	capacity := cfg.QueueCapacity
	if capacity < 1 {
		capacity = workers * 10
	}

	log = log.With(
		"component", "dispatcher",
		"num_workers", workers,
	)

	return &Dispatcher{
		store:        store,
		spool:        spool,
		registry:     registry,
		archiver:     archiver,
		workers:      workers,
		scanDuration: cfg.ScanDuration,
		taskCh:       make(chan scanning.JobDescriptor, capacity),
		stopCh:       make(chan struct{}),
		cancels:      make(map[uuid.UUID]context.CancelFunc),
		logger:       log,
		tracer:       tracer,
	}
}

// Start launches the worker pool. Workers run until Stop is called or the
// context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info(ctx, "dispatcher starting", "queue_capacity", cap(d.taskCh))

	for i := 0; i < d.workers; i++ {
		d.workerWg.Add(1)
		go func(worker int) {
			defer d.workerWg.Done()
			for {
				select {
				case <-d.stopCh:
					return
				case <-ctx.Done():
					return
				case job := <-d.taskCh:
					d.execute(ctx, worker, job)
				}
			}
		}(i)
	}
}

// Stop shuts the pool down and waits for in-flight runs to finish.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.stopOnce.Do(func() { close(d.stopCh) })

	done := make(chan struct{})
	go func() {
		d.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info(ctx, "dispatcher stopped")
	case <-ctx.Done():
		d.logger.Error(ctx, "dispatcher stop timed out", "error", ctx.Err())
	}
}

// Submit hands a job to the pool without blocking the caller.
func (d *Dispatcher) Submit(job scanning.JobDescriptor) error {
	select {
	case <-d.stopCh:
		return ErrStopped
	default:
	}

	select {
	case d.taskCh <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Cancel signals the in-flight worker for the run, if any. The store's
// status transition happens separately at the API layer; this only stops
// the work.
func (d *Dispatcher) Cancel(runID uuid.UUID) {
	d.mu.Lock()
	cancel, ok := d.cancels[runID]
	d.mu.Unlock()
	if ok {
		cancel()
	}
}

func (d *Dispatcher) execute(ctx context.Context, worker int, job scanning.JobDescriptor) {
	ctx, span := d.tracer.Start(ctx, "dispatcher.execute",
		trace.WithAttributes(
			attribute.String("run_id", job.RunID.String()),
			attribute.Int("worker", worker),
		))
	defer span.End()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	d.cancels[job.RunID] = cancel
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.cancels, job.RunID)
		d.mu.Unlock()
	}()

	if err := d.run(runCtx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, context.Canceled) {
			// The cancel operation already transitioned the run; nothing to
			// record beyond the log line.
			d.logger.Info(ctx, "run cancelled mid-flight", "run_id", job.RunID)
			return
		}

		d.logger.Error(ctx, "run failed", "run_id", job.RunID, "error", err)
		if _, failErr := d.store.FailRun(ctx, job.RunID, err.Error()); failErr != nil {
			d.logger.Error(ctx, "recording run failure", "run_id", job.RunID, "error", failErr)
		}
	}
}

// run executes the scan steps for one job. Any returned error other than a
// cancellation moves the run to failed.
func (d *Dispatcher) run(ctx context.Context, job scanning.JobDescriptor) error {
	run, err := d.store.StartRun(ctx, job.RunID)
	if err != nil {
		// A run cancelled while still queued refuses the transition; treat
		// that the same as a mid-flight cancellation.
		return fmt.Errorf("starting run: %w", errors.Join(err, context.Canceled))
	}

	_ = d.store.AddLog(ctx, run.ID, "scan started")

	if err := d.spool.EnqueueRun(ctx, job); err != nil {
		return fmt.Errorf("spooling job: %w", err)
	}

	adapter := d.registry.Select(job)
	_ = d.store.AddLog(ctx, run.ID, "adapter selected: "+adapter.Name())

	limiter := common.NewRateLimiter(job.RateLimit, 1)
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if err := d.simulateScanDelay(ctx); err != nil {
		return err
	}

	result, err := adapter.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("adapter %s: %w", adapter.Name(), err)
	}

	if err := d.spool.WriteResults(ctx, run.ID, result); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	findings, err := d.store.AddFindings(ctx, run.ID, result.Findings)
	if err != nil {
		return fmt.Errorf("persisting findings: %w", err)
	}

	completed, err := d.store.CompleteRun(ctx, run.ID)
	if err != nil {
		// Cancellation won the race; the terminal state is already set.
		return fmt.Errorf("completing run: %w", errors.Join(err, context.Canceled))
	}

	_ = d.store.AddLog(ctx, run.ID, fmt.Sprintf("scan completed: %d findings", len(findings)))

	if d.archiver != nil {
		if err := d.archiver.ArchiveRun(ctx, completed, findings); err != nil {
			d.logger.Error(ctx, "archiving run", "run_id", run.ID, "error", err)
		}
	}

	return nil
}

func (d *Dispatcher) simulateScanDelay(ctx context.Context) error {
	if d.scanDuration <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d.scanDuration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
