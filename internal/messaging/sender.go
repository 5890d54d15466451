// Package messaging adapts the chat providers. Each adapter normalizes
// inbound webhooks into models.InboundMessage and sends replies back out.
package messaging

import "context"

// Sender delivers an outbound text to one chat. Implementations handle
// provider addressing (whatsapp: prefixes, numeric chat ids) internally.
type Sender interface {
	SendText(ctx context.Context, chatID, text string) error
}

// MockSender records outbound messages for tests.
type MockSender struct {
	Sent []SentMessage
}

// SentMessage is one recorded outbound text.
type SentMessage struct {
	ChatID string
	Text   string
}

// NewMockSender returns an empty recorder.
func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) SendText(_ context.Context, chatID, text string) error {
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}
