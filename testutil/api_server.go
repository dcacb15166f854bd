/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil provides test helpers: a fake A1Base API server and Prometheus and error assertions.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// APIBasePath is the path prefix under which APIServer serves the API.
const APIBasePath = "/v1"

const contentTypeAppJSON = "application/json"

// RecordedRequest is a request received by APIServer.
type RecordedRequest struct {
	Method     string
	Path       string // escaped, without APIBasePath
	Header     http.Header
	Body       []byte
	ReceivedAt time.Time
}

// DecodeJSON unmarshals the recorded body into dest.
func (r RecordedRequest) DecodeJSON(t require.TestingT, dest interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.NoError(t, json.Unmarshal(r.Body, dest), "body: %s", r.Body)
}

// APIServer is a fake A1Base API served over TLS.
// It records every request, routed or not. Unrouted requests get 404.
type APIServer struct {
	*httptest.Server
	router chi.Router

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewAPIServer starts a new APIServer. Close it when done.
func NewAPIServer() *APIServer {
	s := &APIServer{router: chi.NewRouter()}
	s.router.Use(s.recordRequest)
	s.Server = httptest.NewTLSServer(s.router)
	return s
}

// BaseURL is the value to use as the client base URL.
func (s *APIServer) BaseURL() string {
	return s.URL + APIBasePath
}

// Transport returns a round tripper that trusts the server certificate.
func (s *APIServer) Transport() http.RoundTripper {
	return s.Client().Transport
}

// Handle routes method and pattern (relative to APIBasePath, chi syntax) to handler.
func (s *APIServer) Handle(method, pattern string, handler http.HandlerFunc) {
	s.router.MethodFunc(method, APIBasePath+pattern, handler)
}

// Requests returns a copy of all recorded requests in arrival order.
func (s *APIServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// RequireRequestsCount fails the test unless exactly n requests were received.
func (s *APIServer) RequireRequestsCount(t require.TestingT, n int) []RecordedRequest {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	reqs := s.Requests()
	require.Len(t, reqs, n)
	return reqs
}

func (s *APIServer) recordRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		path := r.URL.EscapedPath()
		if len(path) >= len(APIBasePath) && path[:len(APIBasePath)] == APIBasePath {
			path = path[len(APIBasePath):]
		}
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:     r.Method,
			Path:       path,
			Header:     r.Header.Clone(),
			Body:       body,
			ReceivedAt: time.Now(),
		})
		s.mu.Unlock()

		next.ServeHTTP(rw, r)
	})
}

// RespondJSON returns a handler writing v as a JSON body with the given status.
func RespondJSON(status int, v interface{}) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", contentTypeAppJSON)
		rw.WriteHeader(status)
		_ = json.NewEncoder(rw).Encode(v)
	}
}

// RespondRaw returns a handler writing body as is with the given status.
func RespondRaw(status int, body string) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(status)
		_, _ = io.WriteString(rw, body)
	}
}

// RespondDetail returns a handler writing an API error body ({"detail": detail}).
func RespondDetail(status int, detail interface{}) http.HandlerFunc {
	return RespondJSON(status, map[string]interface{}{"detail": detail})
}
