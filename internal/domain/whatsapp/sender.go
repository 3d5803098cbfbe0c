package whatsapp

import "context"

// Message is one templated outbound WhatsApp message.
type Message struct {
	Phone     string            `json:"phone"`
	MessageID string            `json:"messageId"`
	Variables map[string]string `json:"variables"`
}

// SendResult carries what the provider answered. StatusCode is 0 when no response arrived.
type SendResult struct {
	StatusCode int
	Body       string
}

// Sender delivers templated messages through the outbound webhook.
// A non-2xx answer is reported as an error alongside the populated result.
type Sender interface {
	Send(ctx context.Context, msg Message) (SendResult, error)
}
