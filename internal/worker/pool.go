// Package worker runs utterance jobs on a fixed set of goroutines fed by a bounded queue.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/metrics"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

// Defaults
const (
	DefaultWorkers   = 2
	DefaultQueueSize = 8
	DefaultTimeout   = 90 * time.Second
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("job queue full")
	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("worker pool stopped")
)

// Job is one unit of work. Run receives a context that expires after the pool timeout.
type Job struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Pool executes jobs with at most Workers running at once.
type Pool struct {
	workers int
	timeout time.Duration
	metrics *metrics.Metrics

	mu      sync.RWMutex
	jobs    chan Job
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a pool. Call Start before Submit.
func New(workers, queueSize int, timeout time.Duration, m *metrics.Metrics) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pool{
		workers: workers,
		timeout: timeout,
		metrics: m,
		jobs:    make(chan Job, queueSize),
	}
}

// Start launches the workers. Cancelling ctx aborts running jobs.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop(ctx, i)
	}
}

// Submit enqueues job without blocking. A full queue drops the job.
func (p *Pool) Submit(job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return job.ID, apperrors.Wrap(ErrStopped, apperrors.Unavailable, "submit "+job.Name)
	}

	select {
	case p.jobs <- job:
		p.metrics.QueueDepth(len(p.jobs))
		return job.ID, nil
	default:
		p.metrics.JobDropped()
		return job.ID, apperrors.Wrap(ErrQueueFull, apperrors.RateLimited, "submit "+job.Name).
			WithMetadata("job_id", job.ID)
	}
}

// Pending returns the number of queued jobs.
func (p *Pool) Pending() int { return len(p.jobs) }

func (p *Pool) loop(ctx context.Context, n int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.metrics.QueueDepth(len(p.jobs))
		if ctx.Err() != nil {
			continue
		}
		p.run(ctx, n, job)
	}
}

func (p *Pool) run(parent context.Context, n int, job Job) {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()
	ctx = trace.WithContext(ctx, trace.New())
	ctx, span := trace.StartSpan(ctx, job.Name)
	defer span.End()
	span.SetAttr("job_id", job.ID)
	span.SetAttr("worker", n)

	log := trace.Logger(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "job", job.Name, "job_id", job.ID, "panic", r)
		}
	}()

	if err := job.Run(ctx); err != nil {
		span.SetAttr("error", err.Error())
		log.Warn("job failed", "job", job.Name, "job_id", job.ID, "kind", apperrors.KindOf(err), "error", err)
	}
}

// Stop rejects new jobs, lets queued ones drain and waits for workers to exit.
// Jobs still running when ctx expires are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		<-done
		return ctx.Err()
	}
}
