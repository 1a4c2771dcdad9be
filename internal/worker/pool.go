package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work detached from the request lifecycle.
type Job struct {
	Name     string
	TicketID string
	Run      func(ctx context.Context) error
}

// Pool is a bounded task executor for asynchronous side effects. Unlike an
// unobserved background goroutine, every outcome is accounted for: failures
// are logged with job context and a full queue rejects instead of blocking
// the request path.
type Pool struct {
	logger  *zap.Logger
	jobs    chan Job
	workers int
	timeout time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool

	onOutcome func(job Job, err error)
}

// NewPool builds a pool with the given queue size and worker count. timeout
// bounds each job run; zero means no bound.
func NewPool(queueSize, workers int, timeout time.Duration, logger *zap.Logger) *Pool {
	if queueSize <= 0 {
		queueSize = 16
	}
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		logger:  logger,
		jobs:    make(chan Job, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

// OnOutcome registers an observer invoked after every job completes or fails.
func (p *Pool) OnOutcome(fn func(job Job, err error)) {
	p.onOutcome = fn
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Enqueue submits a job without blocking. It reports false when the pool is
// stopped or the queue is full; the caller treats that as a dropped job.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		p.logger.Warn("job queue full, dropping job",
			zap.String("job", job.Name),
			zap.String("ticket_id", job.TicketID))
		return false
	}
}

// Stop drains queued jobs and waits for in-flight work to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.execute(job)
	}
}

func (p *Pool) execute(job Job) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := job.Run(ctx)
	if err != nil {
		p.logger.Error("background job failed",
			zap.String("job", job.Name),
			zap.String("ticket_id", job.TicketID),
			zap.Error(err))
	}
	if p.onOutcome != nil {
		p.onOutcome(job, err)
	}
}
