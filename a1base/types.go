/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import "encoding/json"

// Services a message can be sent through.
const (
	ServiceWhatsApp = "whatsapp"
	ServiceSMS      = "sms"
	ServiceEmail    = "email"
)

// Thread types.
const (
	ThreadTypeIndividual = "individual"
	ThreadTypeGroup      = "group"
	ThreadTypeBroadcast  = "broadcast"
)

const fieldDomainName = "domain_name"

// SendIndividualMessageData is the payload of SendIndividualMessage.
type SendIndividualMessageData struct {
	Content       string `json:"content"`
	From          string `json:"from"`
	To            string `json:"to"`
	Service       string `json:"service"`
	AttachmentURI string `json:"attachment_uri,omitempty"`
	AuthID        string `json:"auth_id,omitempty"`
}

// SendGroupMessageData is the payload of SendGroupMessage.
type SendGroupMessageData struct {
	Content       string `json:"content"`
	From          string `json:"from"`
	ThreadID      string `json:"thread_id"`
	Service       string `json:"service"`
	AttachmentURI string `json:"attachment_uri,omitempty"`
}

// MessageDetails describes a single sent or received message.
type MessageDetails struct {
	ChatID        string   `json:"chat_id"`
	ChatName      string   `json:"chat_name"`
	Participants  []string `json:"participants"`
	AccountID     string   `json:"account_id"`
	MessageID     string   `json:"message_id"`
	To            string   `json:"to"`
	From          string   `json:"from"`
	Body          string   `json:"body"`
	Status        string   `json:"status"`
	DateCreated   string   `json:"date_created"`
	Direction     string   `json:"direction"`
	AttachmentURI string   `json:"attachment_uri,omitempty"`
}

// GroupDetails describes a group chat.
type GroupDetails struct {
	AccountID    string   `json:"account_id"`
	ChatID       string   `json:"chat_id"`
	ChatName     string   `json:"chat_name"`
	Participants []string `json:"participants"`
}

// RecentMessage is an entry of RecentMessages.
type RecentMessage struct {
	MessageID     string `json:"message_id"`
	Content       string `json:"content"`
	From          string `json:"from"`
	To            string `json:"to"`
	Service       string `json:"service"`
	DateSent      string `json:"date_sent"`
	Status        string `json:"status"`
	Direction     string `json:"direction"`
	AttachmentURI string `json:"attachment_uri,omitempty"`
}

// RecentMessages is the latest history of a thread.
type RecentMessages struct {
	ThreadID  string          `json:"thread_id"`
	AccountID string          `json:"account_id"`
	Messages  []RecentMessage `json:"messages"`
}

// LastMessage summarizes the latest message of a Thread.
type LastMessage struct {
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	SenderName string `json:"sender_name"`
}

// Thread is a conversation with one or more participants.
type Thread struct {
	ThreadID     string       `json:"thread_id"`
	ThreadType   string       `json:"thread_type"`
	ChatName     string       `json:"chat_name"`
	Participants []string     `json:"participants"`
	LastMessage  *LastMessage `json:"last_message,omitempty"`
	CreatedAt    string       `json:"created_at"`
}

// ThreadList is a page of threads.
type ThreadList struct {
	Threads    []Thread `json:"threads"`
	TotalCount int      `json:"total_count"`
	HasMore    bool     `json:"has_more"`
}

// MessageContent is the structured content of an incoming WhatsApp message.
type MessageContent struct {
	Text string `json:"text,omitempty"`
}

// WhatsAppIncomingData is the payload of an incoming WhatsApp webhook.
type WhatsAppIncomingData struct {
	ThreadID       string          `json:"thread_id"`
	MessageID      string          `json:"message_id"`
	ThreadType     string          `json:"thread_type"`
	Content        string          `json:"content"`
	SenderNumber   string          `json:"sender_number"`
	SenderName     string          `json:"sender_name"`
	A1AccountID    string          `json:"a1_account_id"`
	Timestamp      string          `json:"timestamp"`
	Service        string          `json:"service"`
	MessageType    string          `json:"message_type"`
	IsFromAgent    bool            `json:"is_from_agent"`
	MessageContent *MessageContent `json:"message_content,omitempty"`
}

// EmailHeaders are optional headers of an outgoing email.
type EmailHeaders struct {
	BCC     []string `json:"bcc,omitempty"`
	CC      []string `json:"cc,omitempty"`
	ReplyTo string   `json:"reply-to,omitempty"`
}

// EmailSendData is the payload of SendEmailMessage.
type EmailSendData struct {
	SenderAddress    string        `json:"sender_address"`
	RecipientAddress string        `json:"recipient_address"`
	Subject          string        `json:"subject"`
	Body             string        `json:"body"`
	Headers          *EmailHeaders `json:"headers,omitempty"`
	AttachmentURI    string        `json:"attachment_uri,omitempty"`
}

// EmailCreateData is the payload of CreateEmailAddress.
type EmailCreateData struct {
	Address    string `json:"address"`
	DomainName string `json:"domain_name"`
}

// EmailIncomingData is the payload of an incoming email webhook.
type EmailIncomingData struct {
	EmailID          string `json:"email_id"`
	Subject          string `json:"subject"`
	SenderAddress    string `json:"sender_address"`
	RecipientAddress string `json:"recipient_address"`
	Timestamp        string `json:"timestamp"`
	Service          string `json:"service"`
	RawEmailData     string `json:"raw_email_data"`
}

// Response is the undecoded JSON body of operations whose result has no fixed schema.
type Response = json.RawMessage
