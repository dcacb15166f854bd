/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Address length limits of CreateEmailAddress.
const (
	MinEmailAddressLength = 5
	MaxEmailAddressLength = 30
)

// FreeTierEmailDomains are the domains CreateEmailAddress accepts.
var FreeTierEmailDomains = []string{"a1send.com", "a101.bot"}

var emailAddressCharsRegExp = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// SendEmailMessage sends an email. Subject and Body are sanitized and AttachmentURI, if set,
// must be an http(s) URL.
func (c *Client) SendEmailMessage(ctx context.Context, accountID string, data EmailSendData) (Response, error) {
	data.Subject = Sanitize(data.Subject)
	data.Body = Sanitize(data.Body)
	var err error
	if data.AttachmentURI, err = ValidateAttachmentURI(data.AttachmentURI); err != nil {
		return nil, err
	}
	return c.post(ctx, endpointSendEmail, pathParams{"accountID": accountID}, data)
}

// CreateEmailAddress creates a mailbox on one of FreeTierEmailDomains.
// An invalid address or domain fails with *AddressError before any request is sent.
func (c *Client) CreateEmailAddress(ctx context.Context, accountID string, data EmailCreateData) (Response, error) {
	if err := ValidateEmailCreateData(data); err != nil {
		return nil, err
	}
	data.Address = Sanitize(data.Address)
	return c.post(ctx, endpointCreateEmailAddress, pathParams{"accountID": accountID}, data)
}

// ValidateEmailCreateData checks the local part and the domain of a new email address.
// Checks run in a fixed order and the first violation is returned as *AddressError.
func ValidateEmailCreateData(data EmailCreateData) error {
	addr := data.Address
	addrErr := func(reason string) error {
		return &AddressError{Field: "address", Value: addr, Reason: reason}
	}
	n := utf8.RuneCountInString(addr)
	switch {
	case n < MinEmailAddressLength || n > MaxEmailAddressLength:
		return addrErr("email address must be between 5 and 30 characters long")
	case strings.HasPrefix(addr, ".") || strings.HasSuffix(addr, "."):
		return addrErr("email address cannot start or end with a dot")
	case strings.Contains(addr, ".."):
		return addrErr("email address cannot have consecutive dots")
	case strings.ContainsAny(addr, " ,"):
		return addrErr("email address cannot contain spaces or commas")
	case !emailAddressCharsRegExp.MatchString(addr):
		return addrErr("email address can only contain letters, numbers, and characters '.', '_', '-'")
	}
	for _, domain := range FreeTierEmailDomains {
		if data.DomainName == domain {
			return nil
		}
	}
	return &AddressError{Field: fieldDomainName, Value: data.DomainName,
		Reason: "free tier domains are limited to a1send.com and a101.bot"}
}
