// Package async serializes batch runs requested from outside the CLI's own
// control flow, such as filesystem watch events.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// Job asks for one batch over InputDir.
type Job struct {
	ID          uuid.UUID
	InputDir    string
	OutputDir   string
	Reason      string // "startup" | "watch"
	SubmittedAt time.Time
}

// RunFunc processes one job.
type RunFunc func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// BatchQueue runs jobs one at a time on a single worker. Batches write into
// a shared output tree, so they never overlap. Submissions that arrive while
// the pending slots are full are coalesced: the job already waiting will
// see the same files.
type BatchQueue struct {
	run     RunFunc
	logger  *slog.Logger
	base    context.Context
	timeout time.Duration
	onError func(Job, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*BatchQueue)

// WithPending sets how many jobs may wait behind the running one.
func WithPending(n int) Option {
	return func(q *BatchQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithBatchTimeout bounds a single batch; zero means no bound.
func WithBatchTimeout(d time.Duration) Option {
	return func(q *BatchQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithErrorHandler is called from the worker for every failed job.
func WithErrorHandler(fn func(Job, error)) Option {
	return func(q *BatchQueue) {
		q.onError = fn
	}
}

// NewBatchQueue starts the worker. Jobs run under ctx, so canceling it
// interrupts the running batch.
func NewBatchQueue(ctx context.Context, run RunFunc, logger *slog.Logger, opts ...Option) *BatchQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &BatchQueue{
		run:    run,
		logger: logger,
		base:   ctx,
		ch:     make(chan Job, 1),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *BatchQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.ch {
				q.process(job)
			}
			q.logger.Debug("async.worker.stopped")
		}()
	})
}

func (q *BatchQueue) process(job Job) {
	ctx, cancel := q.base, context.CancelFunc(func() {})
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(q.base, q.timeout)
	}
	defer cancel()

	if err := q.base.Err(); err != nil {
		q.logger.Info("async.batch.skipped", "job_id", job.ID.String(), "reason", err)
		return
	}
	start := time.Now()
	q.logger.Info("async.batch.start", "job_id", job.ID.String(), "reason", job.Reason,
		"waited", start.Sub(job.SubmittedAt).Round(time.Millisecond).String())
	if err := q.run(ctx, job); err != nil {
		q.logger.Error("async.batch.failed", "job_id", job.ID.String(), "error", err)
		if q.onError != nil {
			q.onError(job, err)
		}
		return
	}
	q.logger.Info("async.batch.done", "job_id", job.ID.String(), "duration", time.Since(start).Round(time.Millisecond).String())
}

// Enqueue never blocks. It reports ErrClosed after Shutdown; a job that
// finds the pending slots full is dropped in favour of the one waiting.
func (q *BatchQueue) Enqueue(_ context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "job_id", job.ID.String())
		return ErrClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("async.enqueue.queued", "job_id", job.ID.String(), "reason", job.Reason)
	default:
		q.logger.Debug("async.enqueue.coalesced", "job_id", job.ID.String(), "reason", job.Reason)
	}
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to expire.
func (q *BatchQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.drained")
	}
}
