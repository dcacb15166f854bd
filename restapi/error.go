/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a1base/a1base-go/queue"
)

const networkErrorMessage = "Unable to connect to the server - Please check your internet connection and try again"

// NetworkError is returned when no response was received: connection failure, timeout or aborted request.
type NetworkError struct {
	Channel queue.Channel
	Inner   error

	retryAfter time.Duration
}

func (e *NetworkError) Error() string {
	prefix := "API Error"
	if e.Channel == queue.ChannelWhatsApp {
		prefix = "Network Error"
	}
	return prefix + ": " + networkErrorMessage
}

// Unwrap returns the next error in the error chain.
func (e *NetworkError) Unwrap() error {
	return e.Inner
}

// RetryAfter returns the configured hint for retrying the request.
func (e *NetworkError) RetryAfter() (time.Duration, bool) {
	return e.retryAfter, true
}

// ValidationIssue is a single field-level problem reported by the API in a 422 response.
type ValidationIssue struct {
	Loc  []interface{} `json:"loc"`
	Msg  string        `json:"msg"`
	Type string        `json:"type,omitempty"`
}

// Field returns the dotted path of the offending field. The first location element
// (e.g. "body") is dropped.
func (vi ValidationIssue) Field() string {
	if len(vi.Loc) < 2 {
		return ""
	}
	parts := make([]string, 0, len(vi.Loc)-1)
	for _, l := range vi.Loc[1:] {
		parts = append(parts, fmt.Sprint(l))
	}
	return strings.Join(parts, ".")
}

// ValidationError is returned when the API rejects a request with structured field-level details.
type ValidationError struct {
	Channel queue.Channel
	Issues  []ValidationIssue
}

func (e *ValidationError) Error() string {
	prefix := "Validation Error"
	if e.Channel == queue.ChannelWhatsApp {
		prefix = "WhatsApp Validation Error"
	}
	issues := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		issues = append(issues, issue.Field()+": "+issue.Msg)
	}
	return prefix + ": " + strings.Join(issues, "; ")
}

// APIError is returned for any other non-2xx response.
type APIError struct {
	Status  int
	Channel queue.Channel

	// Detail is the "detail" field of the response when it is a string.
	Detail string

	// RawDetail is the "detail" field of the response as is. Empty if absent.
	RawDetail json.RawMessage

	retryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Channel == queue.ChannelWhatsApp {
		return "WhatsApp Error: " + e.whatsAppMessage()
	}
	return "API Error: " + e.genericMessage()
}

func (e *APIError) genericMessage() string {
	switch e.Status {
	case http.StatusBadRequest:
		return e.invalidFormatMessage()
	case http.StatusUnauthorized:
		return "Authentication failed"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded - Please try again later"
	case http.StatusInternalServerError:
		return "Server error"
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "Service temporarily unavailable"
	}
	return "Request failed"
}

func (e *APIError) whatsAppMessage() string {
	switch e.Status {
	case http.StatusBadRequest:
		return e.invalidFormatMessage()
	case http.StatusUnauthorized:
		return "Authentication failed"
	case http.StatusForbidden:
		return "Access denied"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "Server error - Please try again later or contact support if the issue persists"
	}
	return fmt.Sprintf("%d - %s", e.Status, e.detailText())
}

func (e *APIError) invalidFormatMessage() string {
	detail := e.Detail
	if detail == "" {
		detail = "Invalid request format"
	}
	return "Invalid message format - " + detail
}

func (e *APIError) detailText() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.RawDetail) != 0 && string(e.RawDetail) != "null" {
		return string(e.RawDetail)
	}
	return http.StatusText(e.Status)
}

// RetryAfter returns how long to wait before retrying: the Retry-After response header when present,
// the configured hint otherwise. The second value is false for errors that should not be retried.
func (e *APIError) RetryAfter() (time.Duration, bool) {
	if !e.Retryable() {
		return 0, false
	}
	return e.retryAfter, true
}

// Retryable reports whether repeating the same request may succeed.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsRetryable reports whether err is a mapped API failure that may succeed if the request is repeated:
// network failures, 429 and 5xx responses. Validation and other client errors are not retryable.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

type errorResponseData struct {
	Detail json.RawMessage `json:"detail"`
}

// NewResponseError maps a non-2xx response to ValidationError or APIError.
// retryAfter is the hint used when the response carries no Retry-After header.
func NewResponseError(channel queue.Channel, status int, header http.Header, body []byte, retryAfter time.Duration) error {
	var data errorResponseData
	_ = json.Unmarshal(body, &data) // Non-JSON bodies are mapped by status only.

	if status == http.StatusUnprocessableEntity && len(data.Detail) != 0 && data.Detail[0] == '[' {
		var issues []ValidationIssue
		if err := json.Unmarshal(data.Detail, &issues); err == nil {
			return &ValidationError{Channel: channel, Issues: issues}
		}
	}

	apiErr := &APIError{Status: status, Channel: channel, RawDetail: data.Detail, retryAfter: retryAfter}
	var detail string
	if json.Unmarshal(data.Detail, &detail) == nil {
		apiErr.Detail = detail
	}
	if d, ok := parseRetryAfterHeader(header.Get("Retry-After"), time.Now()); ok {
		apiErr.retryAfter = d
	}
	return apiErr
}
