/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package queue

import (
	"errors"
	"time"

	"github.com/a1base/a1base-go/config"
)

// Default rate limit values.
const (
	DefaultRequestsPerSecond = 10
	DefaultMaxQueueSize      = 100
	DefaultRetryAfter        = time.Second
)

const (
	cfgKeyRequestsPerSecond = "rateLimits.requestsPerSecond"
	cfgKeyMaxQueueSize      = "rateLimits.maxQueueSize"
	cfgKeyRetryAfter        = "rateLimits.retryAfter"
)

var _ config.Config = (*RateLimitConfig)(nil)

// RateLimitConfig represents client-side pacing and backpressure options.
type RateLimitConfig struct {
	// RequestsPerSecond is the dispatch ceiling. Consecutive dispatches are spaced by 1s/RequestsPerSecond.
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`

	// MaxQueueSize is the maximum number of waiting requests. The in-flight request does not count.
	MaxQueueSize int `mapstructure:"maxQueueSize"`

	// RetryAfter is a hint for callers on how long to wait before retrying a failed request.
	// The queue never retries by itself.
	RetryAfter time.Duration `mapstructure:"retryAfter"`
}

// NewDefaultRateLimitConfig returns the defaults: 10 requests/second, 100 queued requests, 1s retry hint.
func NewDefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxQueueSize:      DefaultMaxQueueSize,
		RetryAfter:        DefaultRetryAfter,
	}
}

// WithDefaults returns a copy where each zero value is replaced by its default independently.
func (c RateLimitConfig) WithDefaults() RateLimitConfig {
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.RetryAfter == 0 {
		c.RetryAfter = DefaultRetryAfter
	}
	return c
}

// Validate checks that all values are usable.
func (c RateLimitConfig) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return errors.New("requests per second must be positive")
	}
	if c.MaxQueueSize <= 0 {
		return errors.New("max queue size must be positive")
	}
	if c.RetryAfter < 0 {
		return errors.New("retry after can not be negative")
	}
	return nil
}

// MinInterval returns the pacing interval between two consecutive dispatches.
func (c RateLimitConfig) MinInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.RequestsPerSecond)
}

// SetProviderDefaults is part of config interface implementation.
func (c *RateLimitConfig) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyRequestsPerSecond, DefaultRequestsPerSecond)
	dp.SetDefault(cfgKeyMaxQueueSize, DefaultMaxQueueSize)
	dp.SetDefault(cfgKeyRetryAfter, DefaultRetryAfter.String())
}

// Set is part of config interface implementation.
func (c *RateLimitConfig) Set(dp config.DataProvider) (err error) {
	if c.RequestsPerSecond, err = dp.GetFloat64(cfgKeyRequestsPerSecond); err != nil {
		return err
	}
	if c.RequestsPerSecond <= 0 {
		return dp.WrapKeyErr(cfgKeyRequestsPerSecond, errors.New("must be positive"))
	}

	if c.MaxQueueSize, err = dp.GetInt(cfgKeyMaxQueueSize); err != nil {
		return err
	}
	if c.MaxQueueSize <= 0 {
		return dp.WrapKeyErr(cfgKeyMaxQueueSize, errors.New("must be positive"))
	}

	if c.RetryAfter, err = dp.GetDuration(cfgKeyRetryAfter); err != nil {
		return err
	}
	if c.RetryAfter < 0 {
		return dp.WrapKeyErr(cfgKeyRetryAfter, errors.New("can not be negative"))
	}
	return nil
}
