/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/a1base/a1base-go/log"
	"github.com/a1base/a1base-go/log/logtest"
	"github.com/a1base/a1base-go/testutil"
)

func newWhatsAppIncoming(ts time.Time) WhatsAppIncomingData {
	return WhatsAppIncomingData{
		ThreadID:       "t-1",
		MessageID:      "m-1",
		ThreadType:     ThreadTypeIndividual,
		Content:        " <i>hello</i> ",
		SenderNumber:   "+15550001111",
		SenderName:     "Alice",
		A1AccountID:    testAccountID,
		Timestamp:      ts.Format(time.RFC3339),
		Service:        ServiceWhatsApp,
		MessageType:    "text",
		MessageContent: &MessageContent{Text: "<i>hello</i>"},
	}
}

func TestHandleWhatsAppIncoming(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	freezeNow(t, now)

	tests := []struct {
		name        string
		version     PathVersion
		wantPath    string
		wantPayload map[string]interface{}
	}{
		{
			name:     "nested payload",
			version:  PathVersionV2,
			wantPath: "/messages/wa/whatsapp/incoming",
			wantPayload: map[string]interface{}{
				"thread_id": "t-1", "message_id": "m-1", "thread_type": "individual", "content": "ihello/i",
				"sender_number": "+15550001111", "sender_name": "Alice", "a1_account_id": testAccountID,
				"timestamp": "2024-06-01T11:59:00Z", "service": "whatsapp", "message_type": "text",
				"is_from_agent": false, "message_content": map[string]interface{}{"text": "ihello/i"},
			},
		},
		{
			name:     "flat payload",
			version:  PathVersionV1,
			wantPath: "/wa/whatsapp/incoming",
			wantPayload: map[string]interface{}{
				"thread_id": "t-1", "message_id": "m-1", "thread_type": "individual", "content": "ihello/i",
				"sender_number": "+15550001111", "sender_name": "Alice", "a1_account_id": testAccountID,
				"timestamp": "2024-06-01T11:59:00Z", "service": "whatsapp", "message_type": "text",
				"is_from_agent": false,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewAPIServer()
			defer srv.Close()
			srv.Handle(http.MethodPost, "/*", testutil.RespondJSON(http.StatusOK, map[string]bool{"ok": true}))
			client := newTestClient(t, srv, func(cfg *Config) {
				cfg.PathVersion = tt.version
			})

			resp, err := client.HandleWhatsAppIncoming(context.Background(), newWhatsAppIncoming(now.Add(-time.Minute)))
			require.NoError(t, err)
			require.JSONEq(t, `{"ok":true}`, string(resp))

			req := srv.RequireRequestsCount(t, 1)[0]
			require.Equal(t, tt.wantPath, req.Path)
			var got map[string]interface{}
			req.DecodeJSON(t, &got)
			if diff := cmp.Diff(tt.wantPayload, got); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleWhatsAppIncomingWithoutText(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	freezeNow(t, now)

	srv := testutil.NewAPIServer()
	defer srv.Close()
	srv.Handle(http.MethodPost, "/*", testutil.RespondJSON(http.StatusOK, map[string]bool{"ok": true}))
	client := newTestClient(t, srv, nil)

	data := newWhatsAppIncoming(now)
	data.MessageContent = nil
	_, err := client.HandleWhatsAppIncoming(context.Background(), data)
	require.NoError(t, err)

	var got WhatsAppIncomingData
	srv.RequireRequestsCount(t, 1)[0].DecodeJSON(t, &got)
	require.Equal(t, &MessageContent{}, got.MessageContent)
}

var webhookRejectionErrors = []error{ErrWebhookExpired, ErrTimestampInFuture, ErrInvalidTimestamp}

func TestHandleWhatsAppIncomingRejected(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	freezeNow(t, now)

	tests := []struct {
		name      string
		timestamp string
		wantErr   error
	}{
		{name: "stale", timestamp: now.Add(-301 * time.Second).Format(time.RFC3339), wantErr: ErrWebhookExpired},
		{name: "future", timestamp: now.Add(time.Minute).Format(time.RFC3339), wantErr: ErrTimestampInFuture},
		{name: "garbage", timestamp: "last tuesday", wantErr: ErrInvalidTimestamp},
		{name: "empty", timestamp: "", wantErr: ErrInvalidTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewAPIServer()
			defer srv.Close()
			logRecorder := logtest.NewRecorder()
			cfg := NewDefaultConfig(testAPIKey, testAPISecret)
			cfg.BaseURL = srv.BaseURL()
			client, err := New(cfg, Opts{Transport: srv.Transport(), Logger: logRecorder})
			require.NoError(t, err)

			data := newWhatsAppIncoming(now)
			data.Timestamp = tt.timestamp
			_, err = client.HandleWhatsAppIncoming(context.Background(), data)
			require.ErrorIs(t, err, tt.wantErr)
			testutil.RequireErrorIsAny(t, err, webhookRejectionErrors)
			srv.RequireRequestsCount(t, 0)

			entries := logRecorder.Entries()
			require.Len(t, entries, 1)
			require.Equal(t, log.LevelWarn, entries[0].Level)
			require.Equal(t, "incoming webhook rejected", entries[0].Text)
		})
	}
}

func TestHandleWhatsAppIncomingCustomWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	freezeNow(t, now)

	srv := testutil.NewAPIServer()
	defer srv.Close()
	srv.Handle(http.MethodPost, "/*", testutil.RespondJSON(http.StatusOK, map[string]bool{"ok": true}))
	client := newTestClient(t, srv, func(cfg *Config) {
		cfg.FreshnessWindow = 10 * time.Minute
	})

	_, err := client.HandleWhatsAppIncoming(context.Background(), newWhatsAppIncoming(now.Add(-9*time.Minute)))
	require.NoError(t, err)
	srv.RequireRequestsCount(t, 1)
}

func TestHandleEmailIncoming(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	freezeNow(t, now)

	srv := testutil.NewAPIServer()
	defer srv.Close()
	client := newTestClient(t, srv, nil)

	in := EmailIncomingData{
		EmailID:          "e-1",
		Subject:          " <Re>: invoice ",
		SenderAddress:    "<bob@example.com>",
		RecipientAddress: " support@a1send.com",
		Timestamp:        "1717243170000", // 30s before now, in milliseconds
		Service:          ServiceEmail,
		RawEmailData:     "<raw>",
	}
	got, err := client.HandleEmailIncoming(in)
	require.NoError(t, err)
	want := &EmailIncomingData{
		EmailID:          "e-1",
		Subject:          "Re: invoice",
		SenderAddress:    "bob@example.com",
		RecipientAddress: "support@a1send.com",
		Timestamp:        "1717243170000",
		Service:          ServiceEmail,
		RawEmailData:     "<raw>",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("email mismatch (-want +got):\n%s", diff)
	}
	srv.RequireRequestsCount(t, 0)

	in.Timestamp = now.Add(-time.Hour).Format(time.RFC3339)
	_, err = client.HandleEmailIncoming(in)
	require.ErrorIs(t, err, ErrWebhookExpired)

	in.Timestamp = "soon"
	_, err = client.HandleEmailIncoming(in)
	testutil.RequireErrorIsAny(t, err, webhookRejectionErrors)
}
