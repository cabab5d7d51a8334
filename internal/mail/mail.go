// Package mail provides outbound e-mail senders: SMTP for production, an
// in-memory mock for tests and local runs, and a no-op sender.
package mail

import (
	"context"
	"fmt"
	"strings"
)

// Message is a plain-text e-mail.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Providers accepted by NewSender.
const (
	ProviderSMTP = "smtp"
	ProviderMock = "mock"
	ProviderNone = "none"
)

// NewSender creates a sender for provider. An empty provider means none.
func NewSender(provider string, cfg SMTPConfig) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderSMTP:
		if cfg.Host == "" {
			return nil, fmt.Errorf("SMTP host is required")
		}
		return NewSMTPSender(cfg), nil
	case ProviderMock:
		return NewMockSender(), nil
	case ProviderNone, "":
		return NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", provider)
	}
}

// NoopSender discards every message.
type NoopSender struct{}

// NewNoopSender creates a sender that does nothing.
func NewNoopSender() *NoopSender { return &NoopSender{} }

// Send implements Sender.
func (NoopSender) Send(context.Context, Message) error { return nil }
