/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package queue

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/xid"
)

// Method is the HTTP verb of a queued request.
type Method string

// Supported methods: the API only has read (GET) and write (POST) operations.
const (
	MethodRead  Method = http.MethodGet
	MethodWrite Method = http.MethodPost
)

// Channel tags a request with the API surface it targets.
// Error mapping uses it to pick channel-specific wording.
type Channel string

// Channels.
const (
	ChannelGeneric  Channel = "generic"
	ChannelWhatsApp Channel = "whatsapp"
)

// Request is a single pending API call.
// A Request must not be enqueued more than once.
type Request struct {
	// ID identifies the request in logs and is sent as X-Request-ID. Assigned by Enqueue when zero.
	ID xid.ID

	Method Method

	// Path is relative to the client's base URL and already escaped.
	Path string

	// Body is serialized as JSON for write requests. May be nil.
	Body interface{}

	// Header holds per-call headers merged over the client defaults. May be nil.
	Header http.Header

	Channel Channel

	// EnqueuedAt is set by Enqueue.
	EnqueuedAt time.Time

	ctx    context.Context
	future *Future
}

// Context returns the context the request was enqueued with, stripped of cancellation.
// It carries values (loggers, request ids) but never aborts the dispatch.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Future is the completion handle of an enqueued Request.
// It is fulfilled exactly once, by the queue runner.
type Future struct {
	done chan struct{}
	once sync.Once
	body []byte
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) fulfil(body []byte, err error) {
	f.once.Do(func() {
		f.body, f.err = body, err
		close(f.done)
	})
}

// Done is closed once the request has been dispatched and its result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done.
// Giving up on ctx does not cancel the request: it stays queued and its result is discarded.
func (f *Future) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-f.done:
		return f.body, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
