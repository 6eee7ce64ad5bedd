package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Submit when the buffer has no room.
	ErrQueueFull = errors.New("queue full")
	// ErrQueueClosed is returned by Submit before Start or after Stop.
	ErrQueueClosed = errors.New("queue closed")
)

// Job is one unit of background work.
type Job[T any] struct {
	ID       string
	Payload  T
	Enqueued time.Time
}

// Handler processes a job. The context carries the per-job timeout.
type Handler[T any] func(context.Context, Job[T]) error

// Config sizes the worker pool. Jobs are attempted once; OnError sees every failure.
type Config[T any] struct {
	Name       string
	Workers    int
	BufferSize int
	Timeout    time.Duration
	OnError    func(Job[T], error)
	Logger     *zap.Logger
}

// Queue is a bounded in-memory worker pool.
type Queue[T any] struct {
	cfg     Config[T]
	handler Handler[T]

	mu     sync.RWMutex
	open   bool
	jobs   chan Job[T]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a queue around handler. Call Start before Submit.
func New[T any](handler Handler[T], cfg Config[T]) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "jobs"
	}
	return &Queue[T]{cfg: cfg, handler: handler}
}

// Start launches the workers. Calling it on a running queue does nothing.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.open {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.jobs = make(chan Job[T], q.cfg.BufferSize)
	q.open = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(q.jobs)
	}
	q.cfg.Logger.Info("queue started", zap.String("queue", q.cfg.Name), zap.Int("workers", q.cfg.Workers))
}

// Stop closes intake, lets the workers finish what is buffered and waits for them.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.open {
		q.mu.Unlock()
		return
	}
	q.open = false
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.cfg.Name))
}

// Submit hands job to the pool without blocking.
func (q *Queue[T]) Submit(job Job[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.open {
		return ErrQueueClosed
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports how many jobs are waiting for a worker.
func (q *Queue[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.jobs == nil {
		return 0
	}
	return len(q.jobs)
}

func (q *Queue[T]) work(jobs <-chan Job[T]) {
	defer q.wg.Done()
	for job := range jobs {
		q.run(job)
	}
}

func (q *Queue[T]) run(job Job[T]) {
	ctx, cancel := context.WithTimeout(q.ctx, q.cfg.Timeout)
	defer cancel()

	err := q.handler(ctx, job)
	if err == nil {
		return
	}
	q.cfg.Logger.Debug("job failed",
		zap.String("queue", q.cfg.Name),
		zap.String("job_id", job.ID),
		zap.Duration("waited", time.Since(job.Enqueued)),
		zap.Error(err),
	)
	if q.cfg.OnError != nil {
		q.cfg.OnError(job, err)
	}
}
