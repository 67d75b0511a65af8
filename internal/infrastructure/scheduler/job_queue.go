// Package scheduler runs background marketplace work: an in-process job
// queue with named worker pools and cron triggered maintenance tasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/marketplace/internal/infrastructure/config"
	"github.com/erp/marketplace/internal/infrastructure/logger"
	"github.com/erp/marketplace/internal/infrastructure/telemetry"
)

// QueueName selects the worker pool a job runs on
type QueueName string

const (
	QueueShort   QueueName = "short"
	QueueDefault QueueName = "default"
	QueueLong    QueueName = "long"
)

// defaultJobTimeout applies when a job does not set its own
const defaultJobTimeout = 5 * time.Minute

// Job is one unit of background work. Jobs are never retried.
type Job struct {
	ID      uuid.UUID
	Name    string
	Queue   QueueName
	Timeout time.Duration
	// Args are logged with the job for traceability
	Args       map[string]any
	Run        func(ctx context.Context) error
	EnqueuedAt time.Time
}

func (j *Job) prepare() error {
	if j.Name == "" || j.Run == nil {
		return ErrInvalidJob
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Queue == "" {
		j.Queue = QueueDefault
	}
	if j.Timeout <= 0 {
		j.Timeout = defaultJobTimeout
	}
	if j.EnqueuedAt.IsZero() {
		j.EnqueuedAt = time.Now()
	}
	return nil
}

// JobQueue is a set of named worker pools fed by buffered channels
type JobQueue struct {
	workers map[QueueName]int
	buffer  int
	logger  *zap.Logger
	metrics *telemetry.JobMetrics

	queues  map[QueueName]chan *Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewJobQueue creates a stopped queue from configuration
func NewJobQueue(cfg config.QueueConfig, log *zap.Logger) *JobQueue {
	if log == nil {
		log = zap.NewNop()
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	return &JobQueue{
		workers: map[QueueName]int{
			QueueShort:   max(cfg.ShortWorkers, 1),
			QueueDefault: max(cfg.DefaultWorkers, 1),
			QueueLong:    max(cfg.LongWorkers, 1),
		},
		buffer: buffer,
		logger: log.Named("job_queue"),
	}
}

// WithMetrics records every finished job on m
func (q *JobQueue) WithMetrics(m *telemetry.JobMetrics) *JobQueue {
	q.metrics = m
	return q
}

// Start launches the workers of every queue
func (q *JobQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.queues = make(map[QueueName]chan *Job, len(q.workers))
	for name, count := range q.workers {
		ch := make(chan *Job, q.buffer)
		q.queues[name] = ch
		for i := 0; i < count; i++ {
			q.wg.Add(1)
			go q.worker(ctx, name, i, ch)
		}
	}
	q.running = true

	q.logger.Info("Job queue started",
		zap.Int("short_workers", q.workers[QueueShort]),
		zap.Int("default_workers", q.workers[QueueDefault]),
		zap.Int("long_workers", q.workers[QueueLong]),
		zap.Int("buffer", q.buffer),
	)
	return nil
}

// Stop closes the queues and waits for workers to drain them or for ctx to end
func (q *JobQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	for _, ch := range q.queues {
		close(ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		q.logger.Info("Job queue stopped gracefully")
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("Job queue stop timed out")
		return ctx.Err()
	}
}

// Submit enqueues job without blocking
func (q *JobQueue) Submit(job *Job) error {
	if err := job.prepare(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return ErrQueueNotRunning
	}
	ch, ok := q.queues[job.Queue]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQueue, job.Queue)
	}

	select {
	case ch <- job:
		q.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job", job.Name),
			zap.String("queue", string(job.Queue)),
		)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrJobQueueFull, job.Queue)
	}
}

// RunInline executes job on the caller's goroutine with the job timeout applied
func (q *JobQueue) RunInline(ctx context.Context, job *Job) error {
	if err := job.prepare(); err != nil {
		return err
	}
	return q.execute(ctx, job, -1)
}

func (q *JobQueue) worker(ctx context.Context, queue QueueName, id int, jobs <-chan *Job) {
	defer q.wg.Done()
	for job := range jobs {
		_ = q.execute(ctx, job, id)
	}
	q.logger.Debug("Worker stopped", zap.String("queue", string(queue)), zap.Int("worker_id", id))
}

// execute runs one job under its timeout. Panics are converted to errors so
// one bad job cannot take a worker down.
func (q *JobQueue) execute(ctx context.Context, job *Job, workerID int) (err error) {
	ctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	ctx, span := telemetry.StartSpan(ctx, "job."+job.Name,
		telemetry.WithAttribute(telemetry.SpanAttrJobName, job.Name),
		telemetry.WithAttribute(telemetry.SpanAttrQueue, string(job.Queue)),
	)
	defer span.End()

	ctx, log := logger.WithJobID(ctx, q.logger, job.ID.String())
	log = log.With(zap.String("job", job.Name), zap.String("queue", string(job.Queue)), zap.Int("worker_id", workerID))
	if len(job.Args) > 0 {
		log = log.With(zap.Any("args", job.Args))
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
		elapsed := time.Since(start)
		outcome := telemetry.OutcomeOK
		switch {
		case err == nil:
			telemetry.SetOK(span)
			log.Info("Job completed", zap.Duration("duration", elapsed))
		case errors.Is(err, context.DeadlineExceeded):
			outcome = telemetry.OutcomeTimeout
			telemetry.RecordError(span, err)
			log.Error("Job timed out", zap.Duration("timeout", job.Timeout), zap.Error(err))
		default:
			outcome = telemetry.OutcomeError
			telemetry.RecordError(span, err)
			log.Error("Job failed", zap.Duration("duration", elapsed), zap.Error(err))
		}
		q.metrics.Record(context.WithoutCancel(ctx), job.Name, string(job.Queue), outcome, elapsed)
	}()

	log.Debug("Job started", zap.Duration("waited", start.Sub(job.EnqueuedAt)))
	return job.Run(ctx)
}
