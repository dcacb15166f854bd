/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a1base/a1base-go/log/logtest"
	"github.com/a1base/a1base-go/testutil"
)

type dispatchRecord struct {
	path    string
	startAt time.Time
}

type recordingDispatcher struct {
	mu      sync.Mutex
	records []dispatchRecord
	handle  func(req *Request) ([]byte, error)
}

func (d *recordingDispatcher) Dispatch(_ context.Context, req *Request) ([]byte, error) {
	d.mu.Lock()
	d.records = append(d.records, dispatchRecord{path: req.Path, startAt: time.Now()})
	d.mu.Unlock()
	if d.handle != nil {
		return d.handle(req)
	}
	return []byte(req.Path), nil
}

func (d *recordingDispatcher) Records() []dispatchRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchRecord{}, d.records...)
}

func newTestQueue(t *testing.T, d Dispatcher, cfg RateLimitConfig, opts Opts) *Queue {
	t.Helper()
	q, err := New(d, cfg, opts)
	require.NoError(t, err)
	return q
}

func waitAll(t *testing.T, futures []*Future) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, f := range futures {
		_, _ = f.Wait(ctx)
	}
	require.NoError(t, ctx.Err())
}

func TestQueue_DispatchesInEnqueueOrder(t *testing.T) {
	d := &recordingDispatcher{}
	q := newTestQueue(t, d, RateLimitConfig{RequestsPerSecond: 1000, MaxQueueSize: 100}, Opts{})

	const n = 50
	futures := make([]*Future, 0, n)
	for i := 0; i < n; i++ {
		f, err := q.Enqueue(context.Background(), &Request{Method: MethodRead, Path: fmt.Sprintf("/r/%d", i)})
		require.NoError(t, err)
		futures = append(futures, f)
	}
	waitAll(t, futures)

	records := d.Records()
	require.Len(t, records, n)
	for i, rec := range records {
		require.Equal(t, fmt.Sprintf("/r/%d", i), rec.path)
	}
	for i, f := range futures {
		body, err := f.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("/r/%d", i), string(body))
	}
}

func TestQueue_PacesDispatches(t *testing.T) {
	const rps = 20
	minInterval := time.Second / rps
	const tolerance = 2 * time.Millisecond

	d := &recordingDispatcher{}
	q := newTestQueue(t, d, RateLimitConfig{RequestsPerSecond: rps}, Opts{})

	var futures []*Future
	for i := 0; i < 6; i++ {
		f, err := q.Enqueue(context.Background(), &Request{Method: MethodWrite, Path: fmt.Sprintf("/p/%d", i)})
		require.NoError(t, err)
		futures = append(futures, f)
	}
	waitAll(t, futures)

	records := d.Records()
	require.Len(t, records, 6)
	for i := 1; i < len(records); i++ {
		gap := records[i].startAt.Sub(records[i-1].startAt)
		require.GreaterOrEqual(t, gap, minInterval-tolerance, "gap between dispatch %d and %d", i-1, i)
	}
}

func TestQueue_PacingAppliesAcrossIdlePeriods(t *testing.T) {
	const rps = 10
	d := &recordingDispatcher{}
	q := newTestQueue(t, d, RateLimitConfig{RequestsPerSecond: rps}, Opts{})

	body, err := q.Do(context.Background(), &Request{Method: MethodRead, Path: "/first"})
	require.NoError(t, err)
	require.Equal(t, "/first", string(body))
	require.Eventually(t, func() bool { return q.State() == StateIdle }, time.Second, time.Millisecond)

	_, err = q.Do(context.Background(), &Request{Method: MethodRead, Path: "/second"})
	require.NoError(t, err)

	records := d.Records()
	require.Len(t, records, 2)
	require.GreaterOrEqual(t, records[1].startAt.Sub(records[0].startAt), time.Second/rps-2*time.Millisecond)
}

func TestQueue_RejectsWhenFull(t *testing.T) {
	const maxSize = 3

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	d := &recordingDispatcher{handle: func(req *Request) ([]byte, error) {
		if req.Path == "/blocking" {
			started <- struct{}{}
			<-release
		}
		return nil, nil
	}}
	logger := logtest.NewRecorder()
	metrics := NewPrometheusMetrics()
	q := newTestQueue(t, d, RateLimitConfig{RequestsPerSecond: 1000, MaxQueueSize: maxSize},
		Opts{Logger: logger, MetricsCollector: metrics})

	inFlight, err := q.Enqueue(context.Background(), &Request{Method: MethodWrite, Path: "/blocking"})
	require.NoError(t, err)
	<-started

	// The in-flight request does not count against the bound.
	var waiting []*Future
	for i := 0; i < maxSize; i++ {
		f, enqErr := q.Enqueue(context.Background(), &Request{Method: MethodWrite, Path: fmt.Sprintf("/w/%d", i)})
		require.NoError(t, enqErr)
		waiting = append(waiting, f)
	}
	require.Equal(t, maxSize, q.Len())
	statsBefore := q.Stats()

	rejectedReq := &Request{Method: MethodWrite, Path: "/rejected"}
	f, err := q.Enqueue(context.Background(), rejectedReq)
	require.ErrorIs(t, err, ErrQueueFull)
	require.Nil(t, f)
	require.Contains(t, err.Error(), "max size: 3")

	require.Equal(t, maxSize, q.Len())
	require.Equal(t, StateDraining, q.State())
	require.True(t, rejectedReq.ID.IsNil())
	require.True(t, rejectedReq.EnqueuedAt.IsZero())
	statsAfter := q.Stats()
	require.Equal(t, statsBefore.Enqueued, statsAfter.Enqueued)
	require.Equal(t, statsBefore.Rejected+1, statsAfter.Rejected)
	testutil.RequireCounterValue(t, metrics.RejectedTotal, 1)
	testutil.RequireGaugeValue(t, metrics.Depth, float64(maxSize))

	_, found := logger.FindEntry("request queue is full, rejecting request")
	require.True(t, found)

	close(release)
	waitAll(t, append([]*Future{inFlight}, waiting...))
	for _, rec := range d.Records() {
		require.NotEqual(t, "/rejected", rec.path)
	}
}

func TestQueue_FailureDoesNotAffectSiblings(t *testing.T) {
	errBoom := errors.New("boom")
	d := &recordingDispatcher{handle: func(req *Request) ([]byte, error) {
		switch req.Path {
		case "/fail":
			return nil, errBoom
		case "/panic":
			panic("unexpected")
		}
		return []byte("ok"), nil
	}}
	metrics := NewPrometheusMetrics()
	q := newTestQueue(t, d, RateLimitConfig{RequestsPerSecond: 1000}, Opts{MetricsCollector: metrics})

	paths := []string{"/ok/1", "/fail", "/ok/2", "/panic", "/ok/3"}
	futures := make([]*Future, len(paths))
	for i, p := range paths {
		f, err := q.Enqueue(context.Background(), &Request{Method: MethodRead, Path: p})
		require.NoError(t, err)
		futures[i] = f
	}
	waitAll(t, futures)

	for i, p := range paths {
		body, err := futures[i].Wait(context.Background())
		switch p {
		case "/fail":
			require.ErrorIs(t, err, errBoom)
		case "/panic":
			require.Error(t, err)
			require.Contains(t, err.Error(), "panicked")
		default:
			require.NoError(t, err)
			require.Equal(t, "ok", string(body))
		}
	}

	stats := q.Stats()
	require.EqualValues(t, 5, stats.Dispatched)
	require.EqualValues(t, 2, stats.Failed)
	testutil.RequireCounterValue(t, metrics.DispatchedTotal.WithLabelValues("error"), 2)
	testutil.RequireCounterValue(t, metrics.DispatchedTotal.WithLabelValues("ok"), 3)
	testutil.RequireSamplesCountInHistogram(t, metrics.WaitSeconds, 5)
}

func TestQueue_StateTransitions(t *testing.T) {
	release := make(chan struct{})
	d := &recordingDispatcher{handle: func(req *Request) ([]byte, error) {
		<-release
		return nil, nil
	}}
	q := newTestQueue(t, d, RateLimitConfig{}, Opts{})
	require.Equal(t, StateIdle, q.State())
	require.Equal(t, "idle", q.State().String())

	f1, err := q.Enqueue(context.Background(), &Request{Method: MethodRead, Path: "/a"})
	require.NoError(t, err)
	require.Equal(t, StateDraining, q.State())

	f2, err := q.Enqueue(context.Background(), &Request{Method: MethodRead, Path: "/b"})
	require.NoError(t, err)
	require.Equal(t, "draining", q.State().String())

	close(release)
	waitAll(t, []*Future{f1, f2})
	require.Eventually(t, func() bool { return q.State() == StateIdle }, time.Second, time.Millisecond)
	require.Zero(t, q.Len())
	require.False(t, q.Stats().LastDispatch.IsZero())
	require.Len(t, d.Records(), 2)
}

func TestQueue_WaitDoesNotCancelRequest(t *testing.T) {
	release := make(chan struct{})
	dispatched := make(chan context.Context, 1)
	d := DispatcherFunc(func(ctx context.Context, req *Request) ([]byte, error) {
		<-release
		dispatched <- ctx
		return []byte("done"), nil
	})
	q := newTestQueue(t, d, RateLimitConfig{}, Opts{})

	ctx, cancel := context.WithCancel(context.Background())
	f, err := q.Enqueue(ctx, &Request{Method: MethodWrite, Path: "/slow"})
	require.NoError(t, err)
	cancel()

	_, err = f.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	dispatchCtx := <-dispatched
	require.NoError(t, dispatchCtx.Err())
	body, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", string(body))
}

func TestQueue_AssignsRequestFields(t *testing.T) {
	type ctxKey struct{}
	var gotValue interface{}
	d := DispatcherFunc(func(ctx context.Context, req *Request) ([]byte, error) {
		gotValue = ctx.Value(ctxKey{})
		return nil, nil
	})
	q := newTestQueue(t, d, RateLimitConfig{}, Opts{})

	req := &Request{Method: MethodRead, Path: "/x"}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	_, err := q.Do(ctx, req)
	require.NoError(t, err)
	assert.False(t, req.ID.IsNil())
	assert.False(t, req.EnqueuedAt.IsZero())
	assert.Equal(t, "v", gotValue)
}

func TestNew(t *testing.T) {
	_, err := New(nil, RateLimitConfig{}, Opts{})
	require.Error(t, err)

	_, err = New(DispatcherFunc(nil), RateLimitConfig{RequestsPerSecond: -1}, Opts{})
	require.EqualError(t, err, "invalid rate limit config: requests per second must be positive")

	q, err := New(DispatcherFunc(nil), RateLimitConfig{MaxQueueSize: 5}, Opts{})
	require.NoError(t, err)
	require.Equal(t, RateLimitConfig{RequestsPerSecond: 10, MaxQueueSize: 5, RetryAfter: time.Second}, q.Config())
	require.Equal(t, 100*time.Millisecond, q.Config().MinInterval())
}
