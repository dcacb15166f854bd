/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package queue provides a rate-limited FIFO queue of outbound API requests.
//
// A single runner goroutine drains the queue, spacing consecutive dispatches by
// 1s/RequestsPerSecond. When the queue holds MaxQueueSize waiting requests, Enqueue
// fails fast with ErrQueueFull. Each request gets its own Future, so a failure of
// one request never affects the others.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/a1base/a1base-go/log"
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity.
var ErrQueueFull = errors.New("request queue full")

// Dispatcher performs a single request and returns the raw response body.
// Errors it returns are delivered to the request's Future as is.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *Request) ([]byte, error)
}

// DispatcherFunc is an adapter to allow the use of ordinary functions as Dispatcher.
type DispatcherFunc func(ctx context.Context, req *Request) ([]byte, error)

// Dispatch calls f(ctx, req).
func (f DispatcherFunc) Dispatch(ctx context.Context, req *Request) ([]byte, error) {
	return f(ctx, req)
}

// State is the state of the queue runner.
type State int

// Queue states.
const (
	// StateIdle means no runner is active and the queue is empty.
	StateIdle State = iota
	// StateDraining means a runner is dispatching queued requests.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Enqueued     int64
	Rejected     int64
	Dispatched   int64
	Failed       int64
	Depth        int
	State        State
	LastDispatch time.Time
}

// Opts represents options for the Queue.
type Opts struct {
	// Logger is used for logging rejections and failed dispatches. Logging is disabled when nil.
	Logger log.FieldLogger

	// MetricsCollector is used for collecting queue metrics. Metrics are disabled when nil.
	MetricsCollector MetricsCollector
}

// Queue is a bounded FIFO queue of requests with paced dispatch.
type Queue struct {
	dispatcher  Dispatcher
	cfg         RateLimitConfig
	minInterval time.Duration
	logger      log.FieldLogger
	metrics     MetricsCollector
	rejectLog   rate.Sometimes

	mu      sync.Mutex
	pending []*Request
	state   State

	lastDispatch atomic.Time
	enqueued     atomic.Int64
	rejected     atomic.Int64
	dispatched   atomic.Int64
	failed       atomic.Int64
}

// New creates a new Queue that dispatches requests through dispatcher.
// Zero values in cfg are replaced by defaults.
func New(dispatcher Dispatcher, cfg RateLimitConfig, opts Opts) (*Queue, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetricsCollector
	}
	return &Queue{
		dispatcher:  dispatcher,
		cfg:         cfg,
		minInterval: cfg.MinInterval(),
		logger:      opts.Logger,
		metrics:     opts.MetricsCollector,
		rejectLog:   rate.Sometimes{First: 1, Interval: 10 * time.Second},
		state:       StateIdle,
	}, nil
}

// Config returns the effective rate limit configuration.
func (q *Queue) Config() RateLimitConfig {
	return q.cfg
}

// Enqueue appends req to the tail of the queue and returns its completion handle.
// If the queue already holds MaxQueueSize waiting requests, it fails with ErrQueueFull
// and the queue is left untouched.
//
// Cancellation of ctx does not affect the dispatch. Values of ctx are passed to the Dispatcher.
func (q *Queue) Enqueue(ctx context.Context, req *Request) (*Future, error) {
	q.mu.Lock()
	if len(q.pending) >= q.cfg.MaxQueueSize {
		q.mu.Unlock()
		q.rejected.Inc()
		q.metrics.IncRejected()
		q.rejectLog.Do(func() {
			q.logger.Warn("request queue is full, rejecting request",
				log.String("path", req.Path), log.Int("max_queue_size", q.cfg.MaxQueueSize))
		})
		return nil, fmt.Errorf("%w (max size: %d)", ErrQueueFull, q.cfg.MaxQueueSize)
	}

	if req.ID.IsNil() {
		req.ID = xid.New()
	}
	req.EnqueuedAt = time.Now()
	req.ctx = context.WithoutCancel(ctx)
	req.future = newFuture()
	q.pending = append(q.pending, req)
	q.metrics.SetDepth(len(q.pending))

	startRunner := q.state == StateIdle
	if startRunner {
		q.state = StateDraining
	}
	q.mu.Unlock()

	q.enqueued.Inc()
	if startRunner {
		go q.drain()
	}
	return req.future, nil
}

// Do enqueues req and waits for its result.
// If ctx is done first, Do returns ctx.Err() and the request is still dispatched in the background.
func (q *Queue) Do(ctx context.Context, req *Request) ([]byte, error) {
	future, err := q.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	return future.Wait(ctx)
}

// Len returns the number of waiting requests. The in-flight request is not counted.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// State returns the current state of the runner.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Stats returns a snapshot of queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	depth, state := len(q.pending), q.state
	q.mu.Unlock()
	return Stats{
		Enqueued:     q.enqueued.Load(),
		Rejected:     q.rejected.Load(),
		Dispatched:   q.dispatched.Load(),
		Failed:       q.failed.Load(),
		Depth:        depth,
		State:        state,
		LastDispatch: q.lastDispatch.Load(),
	}
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.state = StateIdle
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		// The head keeps occupying its slot while the runner waits for the pacing interval.
		q.pace()

		q.mu.Lock()
		req := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.metrics.SetDepth(len(q.pending))
		q.mu.Unlock()

		q.dispatch(req)
	}
}

func (q *Queue) pace() {
	last := q.lastDispatch.Load()
	if last.IsZero() {
		return
	}
	if wait := q.minInterval - time.Since(last); wait > 0 {
		time.Sleep(wait)
	}
}

func (q *Queue) dispatch(req *Request) {
	q.metrics.ObserveWait(time.Since(req.EnqueuedAt))

	body, err := q.safeDispatch(req)
	q.lastDispatch.Store(time.Now())

	q.dispatched.Inc()
	q.metrics.IncDispatched(err != nil)
	if err != nil {
		q.failed.Inc()
		q.logger.Debug("queued request failed", log.String("request_id", req.ID.String()),
			log.String("method", string(req.Method)), log.String("path", req.Path), log.Error(err))
	}
	req.future.fulfil(body, err)
}

func (q *Queue) safeDispatch(req *Request) (body []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			body, err = nil, fmt.Errorf("dispatch of %s %s panicked: %v", req.Method, req.Path, p)
		}
	}()
	return q.dispatcher.Dispatch(req.Context(), req)
}
