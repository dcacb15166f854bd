/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"fmt"
	"net/url"
	"strings"
)

var angleBracketsRemover = strings.NewReplacer("<", "", ">", "")

// Sanitize removes angle brackets and surrounding whitespace from free text.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(angleBracketsRemover.Replace(s))
}

// ValidateAttachmentURI checks that uri is an absolute http(s) URL and returns its normalized form.
// An empty uri is returned as is.
func ValidateAttachmentURI(uri string) (string, error) {
	if uri == "" {
		return "", nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAttachmentURI, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: only http(s) is allowed, got %q", ErrInvalidAttachmentURI, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: host is empty", ErrInvalidAttachmentURI)
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
