/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package restapi executes queued requests against the A1Base REST API
// and maps failed calls to NetworkError, ValidationError and APIError.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a1base/a1base-go/httpclient"
	"github.com/a1base/a1base-go/log"
	"github.com/a1base/a1base-go/queue"
)

// ContentTypeAppJSON is the content type of request and response bodies.
const ContentTypeAppJSON = "application/json"

// DefaultMaxResponseBodySize limits how much of a response body is read.
const DefaultMaxResponseBodySize = 10 << 20

const (
	logKeyMethod = "method"
	logKeyURI    = "uri"
	logKeyStatus = "status"
)

// DoRequest allows to do HTTP requests and log some its details
func DoRequest(client *http.Client, req *http.Request, logger log.FieldLogger) (*http.Response, error) {
	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("sent request",
			log.String(logKeyMethod, req.Method),
			log.String(logKeyURI, req.URL.String()),
		)
	})

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn(fmt.Sprintf("failed to do http request %s %s", req.Method, req.URL.String()),
			log.String(logKeyMethod, req.Method),
			log.String(logKeyURI, req.URL.String()),
			log.Error(err),
		)
		return nil, fmt.Errorf("do request: %w", err)
	}

	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("got response",
			log.String(logKeyMethod, req.Method),
			log.String(logKeyURI, req.URL.String()),
			log.Int(logKeyStatus, resp.StatusCode),
		)
	})
	return resp, nil
}

// NewJSONRequest performs JSON marshaling of the passed data and creates a new http.Request
func NewJSONRequest(ctx context.Context, method, url string, data interface{}) (*http.Request, error) {
	if data == nil {
		return nil, errors.New("data cannot be nil")
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil, fmt.Errorf("method %s is not allowed for json request", method)
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", ContentTypeAppJSON)
	return req, nil
}

// ClientOpts represents options for the Client.
type ClientOpts struct {
	// Logger is used for per-request logs. Logging is disabled when nil.
	Logger log.FieldLogger

	// RetryAfter is the retry hint attached to retryable errors when the API sends no Retry-After header.
	RetryAfter time.Duration

	// MaxResponseBodySize limits how much of a response body is read. DefaultMaxResponseBodySize by default.
	MaxResponseBodySize int64
}

// Client executes queued requests over HTTP. It implements queue.Dispatcher.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	opts       ClientOpts
}

var _ queue.Dispatcher = (*Client)(nil)

// NewClient creates a new Client sending requests to baseURL.
func NewClient(httpClient *http.Client, baseURL string, opts ClientOpts) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MaxResponseBodySize <= 0 {
		opts.MaxResponseBodySize = DefaultMaxResponseBodySize
	}
	return &Client{HTTPClient: httpClient, BaseURL: strings.TrimRight(u.String(), "/"), opts: opts}, nil
}

// URL returns the absolute URL of an API path.
func (c *Client) URL(path string) string {
	return c.BaseURL + path
}

// Dispatch performs req and returns the raw body of a 2xx response.
// Failures are returned as *NetworkError, *ValidationError or *APIError tagged with req.Channel.
func (c *Client) Dispatch(ctx context.Context, req *queue.Request) ([]byte, error) {
	requestID := req.ID.String()
	logger := c.opts.Logger.With(log.String("request_id", requestID))
	ctx = httpclient.NewContextWithRequestID(ctx, requestID)
	if httpclient.GetLoggerFromContext(ctx) == nil {
		ctx = httpclient.NewContextWithLogger(ctx, logger)
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		incResponseErrors(string(req.Channel), errorKindClient, 0)
		return nil, fmt.Errorf("create request %s %s: %w", req.Method, req.Path, err)
	}

	resp, err := DoRequest(c.HTTPClient, httpReq, logger)
	if err != nil {
		var credsErr *httpclient.CredentialsRoundTripperError
		if errors.As(err, &credsErr) {
			incResponseErrors(string(req.Channel), errorKindClient, 0)
			return nil, credsErr
		}
		incResponseErrors(string(req.Channel), errorKindNetwork, 0)
		return nil, &NetworkError{Channel: req.Channel, Inner: err, retryAfter: c.opts.RetryAfter}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body", log.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxResponseBodySize))
	if err != nil {
		incResponseErrors(string(req.Channel), errorKindNetwork, resp.StatusCode)
		return nil, &NetworkError{Channel: req.Channel, Inner: fmt.Errorf("read response body: %w", err),
			retryAfter: c.opts.RetryAfter}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	mappedErr := NewResponseError(req.Channel, resp.StatusCode, resp.Header, body, c.opts.RetryAfter)
	kind := errorKindStatus
	var validationErr *ValidationError
	if errors.As(mappedErr, &validationErr) {
		kind = errorKindValidation
	}
	incResponseErrors(string(req.Channel), kind, resp.StatusCode)
	logger.Debug("api call failed", log.String(logKeyMethod, httpReq.Method),
		log.String(logKeyURI, httpReq.URL.String()), log.Int(logKeyStatus, resp.StatusCode), log.Error(mappedErr))
	return nil, mappedErr
}

func (c *Client) newHTTPRequest(ctx context.Context, req *queue.Request) (*http.Request, error) {
	var httpReq *http.Request
	var err error
	if req.Body != nil {
		httpReq, err = NewJSONRequest(ctx, string(req.Method), c.URL(req.Path), req.Body)
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, string(req.Method), c.URL(req.Path), http.NoBody)
	}
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		httpReq.Header[key] = append([]string(nil), values...)
	}
	return httpReq, nil
}

// UnmarshalResponse decodes the JSON body returned for req into result.
// An empty body leaves result untouched.
func UnmarshalResponse(req *queue.Request, body []byte, result interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		e := &ClientError{Method: string(req.Method), URL: &url.URL{Path: req.Path}, StatusCode: http.StatusOK}
		return e.wrap("unmarshaling response", err)
	}
	return nil
}
