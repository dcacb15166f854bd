/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient builds the *http.Client used to talk to the A1Base API.
//
// The client is a chain of http.RoundTripper decorators around a delegate transport:
// credentials, default headers (Accept, User-Agent), X-Request-ID, metrics and logging.
// It performs no retries and no rate limiting: pacing belongs to the request queue
// and retries are left to callers.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/a1base/a1base-go/internal/libinfo"
	"github.com/a1base/a1base-go/log"
)

// CloneHTTPRequest creates a shallow copy of the request along with a deep copy of the Headers.
func CloneHTTPRequest(req *http.Request) *http.Request {
	r := new(http.Request)
	*r = *req
	r.Header = CloneHTTPHeader(req.Header)
	return r
}

// CloneHTTPHeader creates a deep copy of an http.Header.
func CloneHTTPHeader(in http.Header) http.Header {
	out := make(http.Header, len(in))
	for key, values := range in {
		newValues := make([]string, len(values))
		copy(newValues, values)
		out[key] = newValues
	}
	return out
}

// Opts provides options for New and Must functions.
type Opts struct {
	// Credentials provides the API key and secret. Credential headers are not set when nil.
	Credentials CredentialsProvider

	// UserAgent identifies the caller. libinfo.UserAgent() is used by default.
	UserAgent string

	// Header holds default headers set on requests that lack them. "Accept: application/json" by default.
	Header http.Header

	// Delegate is the next RoundTripper in the chain. A clone of http.DefaultTransport by default.
	Delegate http.RoundTripper

	// LoggerProvider is a function that provides a context-specific logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// RequestIDProvider returns the X-Request-ID value for the request.
	RequestIDProvider func(r *http.Request) string

	// MetricsCollector is used when metrics are enabled in the config.
	MetricsCollector MetricsCollector
}

// New creates an HTTP client with the round tripper chain configured by cfg and opts.
func New(cfg *Config, opts Opts) (*http.Client, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("http client timeout can not be negative: %s", cfg.Timeout)
	}

	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}

	if cfg.Logger.Enabled {
		logOpts := cfg.Logger.TransportOpts()
		logOpts.LoggerProvider = opts.LoggerProvider
		delegate = NewLoggingRoundTripperWithOpts(delegate, logOpts)
	}

	if cfg.Metrics.Enabled {
		if opts.MetricsCollector == nil {
			return nil, errors.New("metrics are enabled but no metrics collector is provided")
		}
		delegate = NewMetricsRoundTripperWithOpts(delegate, MetricsRoundTripperOpts{Collector: opts.MetricsCollector})
	}

	delegate = NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{
		RequestIDProvider: opts.RequestIDProvider,
	})

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = libinfo.UserAgent()
	}
	header := opts.Header
	if header == nil {
		header = http.Header{"Accept": []string{"application/json"}}
	}
	delegate = NewHeaderRoundTripper(delegate, header, userAgent)

	if opts.Credentials != nil {
		delegate = NewCredentialsRoundTripper(delegate, opts.Credentials)
	}

	return &http.Client{Transport: delegate, Timeout: cfg.Timeout}, nil
}

// Must creates an HTTP client like New and panics if any error occurs.
func Must(cfg *Config, opts Opts) *http.Client {
	client, err := New(cfg, opts)
	if err != nil {
		panic(err)
	}
	return client
}
