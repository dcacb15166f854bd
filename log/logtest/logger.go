/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"strings"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/a1base/a1base-go/log"
)

// TB is the part of testing.TB the test logger writes to.
type TB interface {
	Helper()
	Logf(format string, args ...interface{})
	Cleanup(func())
}

type testEntryWriter struct {
	mu      sync.Mutex
	encoder logf.Encoder
	t       TB
	done    bool
}

//nolint:gocritic
func (ew *testEntryWriter) WriteEntry(e logf.Entry) {
	ew.mu.Lock()
	defer ew.mu.Unlock()
	if ew.done {
		return
	}

	var buf logf.Buffer
	if err := ew.encoder.Encode(&buf, e); err != nil {
		ew.t.Logf("encode log entry %q: %v", e.Text, err)
		return
	}
	ew.t.Logf("%s", strings.TrimRight(string(buf.Data), "\n"))
}

// NewLogger returns a debug level logger that writes JSON entries into the test log,
// so they show up for failed tests or with -v.
// Entries written after the test has finished (e.g. by a queue runner goroutine) are dropped.
// Secrets are masked with log.DefaultMasks the same way as in production.
func NewLogger(t TB) log.FieldLogger {
	ew := &testEntryWriter{
		encoder: logf.NewJSONEncoder(logf.JSONEncoderConfig{
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
			FieldKeyTime: "time",
		}),
		t: t,
	}
	t.Cleanup(func() {
		ew.mu.Lock()
		ew.done = true
		ew.mu.Unlock()
	})
	return log.NewMaskingLogger(&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, ew)}, log.NewMasker(log.DefaultMasks))
}
