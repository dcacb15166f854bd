/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ssgreg/logf"
	"github.com/stretchr/testify/require"

	"github.com/a1base/a1base-go/config"
)

func TestConfig_Set(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`log: {}`), config.DataTypeYAML, cfg)
		require.NoError(t, err)
		want := NewDefaultConfig()
		require.Equal(t, want, cfg)
	})

	t.Run("file output without path", func(t *testing.T) {
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`log: {output: file}`), config.DataTypeYAML, cfg)
		require.EqualError(t, err, `log.file.path: cannot be empty when "file" output is used`)
	})

	t.Run("unknown level", func(t *testing.T) {
		cfg := NewConfig()
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`log: {level: trace}`), config.DataTypeYAML, cfg)
		require.ErrorContains(t, err, `log.level: unknown value "trace"`)
	})
}

func TestMasker_DefaultMasks(t *testing.T) {
	masker := NewMasker(DefaultMasks)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "raw http headers",
			in:   "X-API-Key: key123\r\nX-API-Secret: s3cr3t\r\n",
			want: "X-API-Key: ***\r\nX-API-Secret: ***\r\n",
		},
		{
			name: "go header map",
			in:   "headers map[X-Api-Secret:[s3cr3t]]",
			want: "headers map[X-API-Secret:***]]",
		},
		{
			name: "json config",
			in:   `{"apiKey": "key123", "apiSecret": "s3cr3t"}`,
			want: `{"apiKey": "key123", "apiSecret": "***"}`,
		},
		{
			name: "form encoded",
			in:   "api_secret=s3cr3t&from=%2B1234",
			want: "api_secret=***&from=%2B1234",
		},
		{
			name: "nothing to mask",
			in:   "send individual message",
			want: "send individual message",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, masker.Mask(tt.in))
		})
	}
}

type bufferEntryWriter struct {
	encoder logf.Encoder
	buf     *bytes.Buffer
}

//nolint:gocritic
func (w *bufferEntryWriter) WriteEntry(e logf.Entry) {
	var b logf.Buffer
	if err := w.encoder.Encode(&b, e); err == nil {
		w.buf.Write(b.Data)
	}
}

func newBufferLogger(buf *bytes.Buffer) *logf.Logger {
	return logf.NewLogger(logf.LevelDebug, &bufferEntryWriter{
		encoder: logf.NewJSONEncoder(logf.JSONEncoderConfig{}),
		buf:     buf,
	})
}

func TestMaskingLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewMaskingLogger(
		&LogfAdapter{Logger: newBufferLogger(&buf)}, NewMasker(DefaultMasks))

	logger.Error("request failed: X-API-Secret: s3cr3t\r\n",
		String("headers", "X-API-Key: key123\r\n"),
		Error(errors.New(`decode {"apiSecret": "s3cr3t"}`)))

	out := buf.String()
	require.NotContains(t, out, "s3cr3t")
	require.NotContains(t, out, "key123")
	require.Contains(t, out, "***")
}
