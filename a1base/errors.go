/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"errors"
	"fmt"
)

// Errors returned before any request is sent.
var (
	ErrInsecureBaseURL      = errors.New("base url must be an https url")
	ErrUnknownPathVersion   = errors.New("unknown path version")
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidAttachmentURI = errors.New("invalid attachment uri")
	ErrInvalidEmailAddress  = errors.New("invalid email address")
	ErrInvalidEmailDomain   = errors.New("invalid email domain")
	ErrWebhookExpired       = errors.New("webhook request expired: timestamp too old")
	ErrInvalidTimestamp     = errors.New("invalid timestamp format")
	ErrTimestampInFuture    = errors.New("timestamp is in the future")
)

func missingFieldError(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// AddressError describes why an email address creation request was rejected.
// It matches ErrInvalidEmailAddress or ErrInvalidEmailDomain with errors.Is.
type AddressError struct {
	// Field is the offending payload field: "address" or "domain_name".
	Field  string
	Value  string
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid '%s': %s", e.Field, e.Reason)
}

// Is reports whether target is the sentinel of this error kind.
func (e *AddressError) Is(target error) bool {
	if e.Field == fieldDomainName {
		return target == ErrInvalidEmailDomain
	}
	return target == ErrInvalidEmailAddress
}
