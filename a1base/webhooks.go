/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	"context"

	"github.com/a1base/a1base-go/log"
)

// whatsAppIncomingFlat is the legacy wire shape of an incoming WhatsApp message.
type whatsAppIncomingFlat struct {
	ThreadID     string `json:"thread_id"`
	MessageID    string `json:"message_id"`
	ThreadType   string `json:"thread_type"`
	Content      string `json:"content"`
	SenderNumber string `json:"sender_number"`
	SenderName   string `json:"sender_name"`
	A1AccountID  string `json:"a1_account_id"`
	Timestamp    string `json:"timestamp"`
	Service      string `json:"service"`
	MessageType  string `json:"message_type"`
	IsFromAgent  bool   `json:"is_from_agent"`
}

// HandleWhatsAppIncoming checks the freshness of an incoming WhatsApp webhook, sanitizes its text
// and forwards it to the ingestion endpoint.
// A stale webhook fails with ErrWebhookExpired, a malformed or future timestamp
// with ErrInvalidTimestamp or ErrTimestampInFuture.
func (c *Client) HandleWhatsAppIncoming(ctx context.Context, data WhatsAppIncomingData) (Response, error) {
	if err := c.checkFreshness("whatsapp", data.Timestamp); err != nil {
		return nil, err
	}

	data.Content = Sanitize(data.Content)
	if c.paths.WhatsAppPayload == payloadShapeFlat {
		return c.post(ctx, endpointWhatsAppIncoming, nil, whatsAppIncomingFlat{
			ThreadID:     data.ThreadID,
			MessageID:    data.MessageID,
			ThreadType:   data.ThreadType,
			Content:      data.Content,
			SenderNumber: data.SenderNumber,
			SenderName:   data.SenderName,
			A1AccountID:  data.A1AccountID,
			Timestamp:    data.Timestamp,
			Service:      data.Service,
			MessageType:  data.MessageType,
			IsFromAgent:  data.IsFromAgent,
		})
	}

	mc := MessageContent{}
	if data.MessageContent != nil && data.MessageContent.Text != "" {
		mc.Text = Sanitize(data.MessageContent.Text)
	}
	data.MessageContent = &mc
	return c.post(ctx, endpointWhatsAppIncoming, nil, data)
}

// HandleEmailIncoming checks the freshness of an incoming email webhook and returns it
// with the subject and addresses sanitized. No request is sent.
func (c *Client) HandleEmailIncoming(data EmailIncomingData) (*EmailIncomingData, error) {
	if err := c.checkFreshness("email", data.Timestamp); err != nil {
		return nil, err
	}
	data.Subject = Sanitize(data.Subject)
	data.SenderAddress = Sanitize(data.SenderAddress)
	data.RecipientAddress = Sanitize(data.RecipientAddress)
	return &data, nil
}

func (c *Client) checkFreshness(source, timestamp string) error {
	err := checkWebhookFreshness(timestamp, c.freshnessWindow)
	if err != nil {
		c.logger.Warn("incoming webhook rejected",
			log.String("source", source), log.String("timestamp", timestamp), log.Error(err))
	}
	return err
}
