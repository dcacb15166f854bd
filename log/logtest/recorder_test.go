/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/a1base/a1base-go/log"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	logger := rec.With(log.String("request_id", "cn1"))
	logger.Warn("request queue is full", log.Int("max_queue_size", 100))
	logger.Debugf("dispatched %d request(s)", 3)

	entry, found := rec.FindEntry("request queue is full")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	field, found := entry.FindField("max_queue_size")
	require.True(t, found)
	require.EqualValues(t, 100, field.Int)
	_, found = entry.FindField("request_id")
	require.True(t, found)

	_, found = rec.FindEntry("dispatched 3 request(s)")
	require.True(t, found)
	require.Len(t, rec.Entries(), 2)

	rec.Reset()
	require.Empty(t, rec.Entries())
}
