/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "net/http"

// HeaderRoundTripper implements http.RoundTripper interface
// and fills in default HTTP headers missing in outgoing requests.
//
// User-Agent is handled separately: the configured value is appended
// to the one set by the caller, so the SDK is always identified.
type HeaderRoundTripper struct {
	Delegate  http.RoundTripper
	Header    http.Header
	UserAgent string
}

// NewHeaderRoundTripper creates a new HeaderRoundTripper.
func NewHeaderRoundTripper(delegate http.RoundTripper, header http.Header, userAgent string) *HeaderRoundTripper {
	return &HeaderRoundTripper{Delegate: delegate, Header: CloneHTTPHeader(header), UserAgent: userAgent}
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = CloneHTTPRequest(req) // Per RoundTripper contract.
	for key, values := range rt.Header {
		if len(values) == 0 || req.Header.Get(key) != "" {
			continue
		}
		req.Header[key] = append([]string(nil), values...)
	}
	if rt.UserAgent != "" {
		switch userAgent := req.Header.Get("User-Agent"); userAgent {
		case "", rt.UserAgent:
			req.Header.Set("User-Agent", rt.UserAgent)
		default:
			req.Header.Set("User-Agent", userAgent+" "+rt.UserAgent)
		}
	}
	return rt.Delegate.RoundTrip(req)
}
