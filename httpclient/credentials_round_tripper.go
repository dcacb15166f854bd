/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Credential header names.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderAPISecret = "X-API-Secret"
)

// ErrEmptyCredentials is returned when the API key or secret is empty.
var ErrEmptyCredentials = errors.New("api key and api secret are required")

// CredentialsRoundTripperError is returned in RoundTrip method of CredentialsRoundTripper
// when credentials cannot be obtained. The request is not sent in this case.
type CredentialsRoundTripperError struct {
	Inner error
}

func (e *CredentialsRoundTripperError) Error() string {
	return fmt.Sprintf("credentials round trip: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *CredentialsRoundTripperError) Unwrap() error {
	return e.Inner
}

// Credentials is an API key/secret pair.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Validate returns ErrEmptyCredentials if any part is empty.
func (c Credentials) Validate() error {
	if c.APIKey == "" || c.APISecret == "" {
		return ErrEmptyCredentials
	}
	return nil
}

// String never reveals the secret.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey: %q, APISecret: \"***\"}", c.APIKey)
}

// CredentialsProvider provides the credentials attached to outgoing requests.
type CredentialsProvider interface {
	GetCredentials(ctx context.Context) (Credentials, error)
}

// CredentialsProviderFunc allows using a function as CredentialsProvider.
type CredentialsProviderFunc func(ctx context.Context) (Credentials, error)

// GetCredentials calls f(ctx).
func (f CredentialsProviderFunc) GetCredentials(ctx context.Context) (Credentials, error) {
	return f(ctx)
}

// StaticCredentials returns a CredentialsProvider that always provides creds.
func StaticCredentials(creds Credentials) CredentialsProvider {
	return CredentialsProviderFunc(func(context.Context) (Credentials, error) {
		return creds, nil
	})
}

// CredentialsRoundTripper implements http.RoundTripper interface
// and sets X-API-Key and X-API-Secret HTTP headers in all outgoing requests.
type CredentialsRoundTripper struct {
	Delegate            http.RoundTripper
	CredentialsProvider CredentialsProvider
}

// NewCredentialsRoundTripper creates a new CredentialsRoundTripper.
func NewCredentialsRoundTripper(delegate http.RoundTripper, provider CredentialsProvider) *CredentialsRoundTripper {
	return &CredentialsRoundTripper{Delegate: delegate, CredentialsProvider: provider}
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *CredentialsRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	creds, err := rt.CredentialsProvider.GetCredentials(req.Context())
	if err == nil {
		err = creds.Validate()
	}
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close() // Per RoundTripper contract.
		}
		return nil, &CredentialsRoundTripperError{Inner: err}
	}
	req = CloneHTTPRequest(req) // Per RoundTripper contract.
	req.Header.Set(HeaderAPIKey, creds.APIKey)
	req.Header.Set(HeaderAPISecret, creds.APISecret)
	return rt.Delegate.RoundTrip(req)
}
