/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultFreshnessWindow is the maximum accepted age of an incoming webhook.
const DefaultFreshnessWindow = 5 * time.Minute

// MaxClockSkew is how far in the future a webhook timestamp may be.
const MaxClockSkew = 30 * time.Second

var nowFunc = time.Now

// IsTimestampFresh reports whether tsMillis (milliseconds since the Unix epoch) is younger than maxAge.
// It fails with ErrInvalidTimestamp for NaN and with ErrTimestampInFuture
// when tsMillis is more than MaxClockSkew ahead of now.
func IsTimestampFresh(tsMillis float64, maxAge time.Duration) (bool, error) {
	if math.IsNaN(tsMillis) || math.IsInf(tsMillis, 0) {
		return false, ErrInvalidTimestamp
	}
	nowMillis := float64(nowFunc().UnixMilli())
	if tsMillis > nowMillis+float64(MaxClockSkew.Milliseconds()) {
		return false, ErrTimestampInFuture
	}
	return nowMillis-tsMillis < float64(maxAge.Milliseconds()), nil
}

// ParseWebhookTimestamp converts a webhook timestamp to milliseconds since the Unix epoch.
// RFC 3339 strings and decimal milliseconds are accepted. NaN is returned for anything else.
func ParseWebhookTimestamp(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return float64(t.UnixMilli())
	}
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return ms
	}
	return math.NaN()
}

func checkWebhookFreshness(timestamp string, maxAge time.Duration) error {
	fresh, err := IsTimestampFresh(ParseWebhookTimestamp(timestamp), maxAge)
	if err != nil {
		return fmt.Errorf("check webhook timestamp %q: %w", timestamp, err)
	}
	if !fresh {
		return ErrWebhookExpired
	}
	return nil
}
