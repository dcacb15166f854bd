/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package a1base is a client for the A1Base messaging API.
//
// Every call is placed on a rate-limited FIFO queue and dispatched by a single runner,
// so concurrent callers never exceed the configured requests-per-second ceiling.
// A full queue rejects new calls with queue.ErrQueueFull instead of blocking.
//
//	client, err := a1base.New(a1base.NewDefaultConfig(apiKey, apiSecret), a1base.Opts{Logger: logger})
//	if err != nil {
//		return err
//	}
//	resp, err := client.SendIndividualMessage(ctx, accountID, a1base.SendIndividualMessageData{
//		Content: "Hello", From: "+15550001111", To: "+15550002222", Service: a1base.ServiceWhatsApp,
//	})
package a1base

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a1base/a1base-go/httpclient"
	"github.com/a1base/a1base-go/internal/libinfo"
	"github.com/a1base/a1base-go/log"
	"github.com/a1base/a1base-go/queue"
	"github.com/a1base/a1base-go/restapi"
	"github.com/a1base/a1base-go/retry"
)

// Opts represents options for New.
type Opts struct {
	// Logger is used by the queue, the dispatcher and the HTTP logging round tripper. Disabled when nil.
	Logger log.FieldLogger

	// Transport is the innermost round tripper. A clone of http.DefaultTransport by default.
	Transport http.RoundTripper

	// UserAgent is prepended to the SDK User-Agent when set.
	UserAgent string

	// QueueMetrics receives queue depth, rejections and waits. Disabled when nil.
	QueueMetrics queue.MetricsCollector

	// HTTPMetrics is required when cfg.HTTPClient.Metrics.Enabled is true.
	HTTPMetrics httpclient.MetricsCollector
}

// Client exposes the A1Base API operations. It is safe for concurrent use.
type Client struct {
	queue           *queue.Queue
	paths           *pathTable
	pathVersion     PathVersion
	freshnessWindow time.Duration
	retryAfter      time.Duration
	logger          log.FieldLogger
}

// New creates a Client. The base URL must be https and both credentials must be set.
func New(cfg *Config, opts Opts) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	creds := httpclient.Credentials{APIKey: cfg.Credentials.APIKey, APISecret: cfg.Credentials.APISecret}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := checkBaseURL(baseURL); err != nil {
		return nil, err
	}

	pathVersion := cfg.PathVersion
	if pathVersion == "" {
		pathVersion = PathVersionV2
	}
	paths, err := pathTableFor(pathVersion)
	if err != nil {
		return nil, err
	}

	freshnessWindow := cfg.FreshnessWindow
	if freshnessWindow == 0 {
		freshnessWindow = DefaultFreshnessWindow
	}
	if freshnessWindow < 0 {
		return nil, fmt.Errorf("freshness window can not be negative: %s", freshnessWindow)
	}

	rateLimits := cfg.RateLimits.WithDefaults()
	if err = rateLimits.Validate(); err != nil {
		return nil, fmt.Errorf("rate limits: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewDisabledLogger()
	}

	httpCfg := cfg.HTTPClient
	if httpCfg.Timeout == 0 {
		httpCfg.Timeout = httpclient.DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent != "" {
		userAgent += " " + libinfo.UserAgent()
	}
	httpClient, err := httpclient.New(&httpCfg, httpclient.Opts{
		Credentials:      httpclient.StaticCredentials(creds),
		UserAgent:        userAgent,
		Delegate:         opts.Transport,
		MetricsCollector: opts.HTTPMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	restClient, err := restapi.NewClient(httpClient, baseURL, restapi.ClientOpts{
		Logger:     logger,
		RetryAfter: rateLimits.RetryAfter,
	})
	if err != nil {
		return nil, err
	}

	q, err := queue.New(restClient, rateLimits, queue.Opts{Logger: logger, MetricsCollector: opts.QueueMetrics})
	if err != nil {
		return nil, fmt.Errorf("create request queue: %w", err)
	}

	return &Client{
		queue:           q,
		paths:           paths,
		pathVersion:     pathVersion,
		freshnessWindow: freshnessWindow,
		retryAfter:      rateLimits.RetryAfter,
		logger:          logger,
	}, nil
}

// Queue returns the request queue of the client.
func (c *Client) Queue() *queue.Queue {
	return c.queue
}

// PathVersion returns the path table in use.
func (c *Client) PathVersion() PathVersion {
	return c.pathVersion
}

// RetryPolicy returns a constant backoff policy spaced by the configured retry hint.
// Use it with retry.DoWithRetry and restapi.IsRetryable; the client never retries by itself.
func (c *Client) RetryPolicy(maxAttempts int) retry.Policy {
	return retry.NewConstantBackoffPolicy(c.retryAfter, maxAttempts)
}

func (c *Client) call(
	ctx context.Context, e endpoint, method queue.Method, params pathParams, body interface{}, result interface{},
) error {
	path, err := c.paths.path(e, params)
	if err != nil {
		return err
	}
	channel := queue.ChannelGeneric
	if e == endpointWhatsAppIncoming {
		channel = queue.ChannelWhatsApp
	}
	req := &queue.Request{Method: method, Path: path, Body: body, Channel: channel}

	respBody, err := c.queue.Do(httpclient.NewContextWithRequestType(ctx, string(e)), req)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return restapi.UnmarshalResponse(req, respBody, result)
}

func (c *Client) get(ctx context.Context, e endpoint, params pathParams, result interface{}) error {
	return c.call(ctx, e, queue.MethodRead, params, nil, result)
}

func (c *Client) post(ctx context.Context, e endpoint, params pathParams, body interface{}) (Response, error) {
	var resp Response
	if err := c.call(ctx, e, queue.MethodWrite, params, body, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
