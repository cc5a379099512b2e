package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/syncode/syncode/internal/logger"
)

const (
	defaultMinDelay       = 500 * time.Millisecond
	defaultBaseBackoff    = time.Second
	defaultMaxRetries     = 5
	defaultAttemptTimeout = 30 * time.Second
)

// Status is a point-in-time view of the queue
type Status struct {
	QueueLength  int  `json:"queueLength"`
	IsProcessing bool `json:"isProcessing"`
}

type jobOutcome struct {
	result Result
	err    error
}

type pendingJob struct {
	job      Job
	resultCh chan jobOutcome
}

// Queue serializes jobs to an execution engine. Jobs run strictly one at a
// time in FIFO submission order across all rooms, with a minimum spacing
// between dispatches; throttled dispatches are retried with exponential
// backoff up to a fixed ceiling. One Queue exists per process.
type Queue struct {
	engine Engine

	minDelay       time.Duration
	baseBackoff    time.Duration
	maxRetries     int
	attemptTimeout time.Duration

	mu           sync.Mutex
	pending      []*pendingJob
	isProcessing bool
	lastDispatch time.Time
}

// NewQueue creates a queue in front of the given engine
func NewQueue(engine Engine) *Queue {
	return &Queue{
		engine:         engine,
		minDelay:       defaultMinDelay,
		baseBackoff:    defaultBaseBackoff,
		maxRetries:     defaultMaxRetries,
		attemptTimeout: defaultAttemptTimeout,
	}
}

// Submit appends the job to the queue and blocks until it settles or ctx is
// cancelled. A cancelled caller abandons its result but not its queue slot:
// the job still runs and the outcome is discarded.
func (q *Queue) Submit(ctx context.Context, job Job) (Result, error) {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	pj := &pendingJob{
		job:      job,
		resultCh: make(chan jobOutcome, 1),
	}

	q.mu.Lock()
	q.pending = append(q.pending, pj)
	q.mu.Unlock()

	go q.drain()

	select {
	case out := <-pj.resultCh:
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Status returns the queue length and in-flight flag
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Status{
		QueueLength:  len(q.pending),
		IsProcessing: q.isProcessing,
	}
}

// drain services the head of the queue. The isProcessing guard makes it
// single-flight: a call while another drainer is active is a no-op, and at
// most one job is ever in flight to the engine.
func (q *Queue) drain() {
	q.mu.Lock()
	if q.isProcessing || len(q.pending) == 0 {
		q.mu.Unlock()
		return
	}
	q.isProcessing = true
	pj := q.pending[0]
	q.pending = q.pending[1:]
	sinceLast := time.Since(q.lastDispatch)
	q.mu.Unlock()

	if wait := q.minDelay - sinceLast; wait > 0 {
		time.Sleep(wait)
	}

	result, err := q.dispatchWithRetry(pj.job)
	pj.resultCh <- jobOutcome{result: result, err: err}

	// A failed job must not poison the queue: always release the guard and
	// keep draining.
	q.mu.Lock()
	q.isProcessing = false
	q.lastDispatch = time.Now()
	more := len(q.pending) > 0
	q.mu.Unlock()

	if more {
		q.drain()
	}
}

// dispatchWithRetry runs one job against the engine, retrying only
// rate-limit failures with doubling backoff. Each attempt is bounded by the
// per-attempt timeout so a stuck engine cannot stall the queue indefinitely.
func (q *Queue) dispatchWithRetry(job Job) (Result, error) {
	var lastErr error
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		if attempt > 0 {
			delay := q.baseBackoff << (attempt - 1)
			logger.Info("Execution engine throttled, retry %d/%d in %s", attempt, q.maxRetries, delay)
			time.Sleep(delay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), q.attemptTimeout)
		result, err := q.engine.Execute(ctx, job)
		cancel()

		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return Result{}, err
		}
		lastErr = err
	}

	return Result{}, lastErr
}
