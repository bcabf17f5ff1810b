// Package jobs provides an in-process worker queue for background tasks such
// as report rendering. Jobs are not persisted; a restart drops whatever was
// still queued.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler executes a job. A non-nil error triggers a retry until the queue's
// retry budget is spent.
type Handler func(context.Context, Job) error

// QueueConfig sizes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewQueue builds a queue. Zero config fields fall back to small defaults.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start spins up the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.running = true
	q.cfg.Logger.Info("job queue started",
		zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and blocks until they exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("job queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a job to the pool. It fails when the queue has not been
// started, has been stopped, or its buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, running := q.ctx, q.running
	q.mu.Unlock()

	if !running {
		return fmt.Errorf("queue %s is not running", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue %s is full", q.name)
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.process(job)
		}
	}
}

func (q *Queue) process(job Job) {
	for {
		err := q.handler(q.ctx, job)
		if err == nil {
			return
		}

		job.Attempt++
		if job.Attempt > q.cfg.MaxRetries {
			q.cfg.Logger.Error("job dropped after retries",
				zap.String("queue", q.name), zap.String("job_id", job.ID),
				zap.String("type", job.Type), zap.Error(err))
			return
		}
		q.cfg.Logger.Warn("job failed, retrying",
			zap.String("queue", q.name), zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt), zap.Error(err))

		select {
		case <-q.ctx.Done():
			return
		case <-time.After(q.cfg.RetryDelay):
		}
	}
}
