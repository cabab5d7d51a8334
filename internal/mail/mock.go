package mail

import (
	"context"
	"errors"
	"sync"
)

// MockSender stores messages in memory instead of sending them.
type MockSender struct {
	mu   sync.Mutex
	sent []Message

	// ShouldFail makes Send return FailError (or a generic error).
	ShouldFail bool
	FailError  error
}

// NewMockSender creates an empty mock sender.
func NewMockSender() *MockSender { return &MockSender{} }

// Send records msg.
func (m *MockSender) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldFail {
		if m.FailError != nil {
			return m.FailError
		}
		return errors.New("mock mail send failure")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Last returns the most recent message, if any.
func (m *MockSender) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// Reset clears recorded messages.
func (m *MockSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
