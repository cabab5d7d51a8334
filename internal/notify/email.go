package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-form-engine/internal/events"
	"github.com/tbourn/go-form-engine/internal/mail"
	"github.com/tbourn/go-form-engine/internal/schema"
)

// EmailNotifier mails a plain-text summary to a fixed recipient.
type EmailNotifier struct {
	to     string
	sender mail.Sender
}

// NewEmailNotifier creates an e-mail notifier. It is enabled only when to is
// a syntactically valid address.
func NewEmailNotifier(to string, sender mail.Sender) *EmailNotifier {
	return &EmailNotifier{to: strings.TrimSpace(to), sender: sender}
}

// Name implements Notifier.
func (n *EmailNotifier) Name() string { return "email" }

// IsEnabled implements Notifier.
func (n *EmailNotifier) IsEnabled() bool { return schema.IsEmail(n.to) }

// Notify sends the summary. Reply-To is the submitter's address when the
// submission carries a valid "email" value.
func (n *EmailNotifier) Notify(ctx context.Context, e events.SubmissionCreatedEvent) error {
	if n.sender == nil {
		return errors.New("email notifier has no sender")
	}
	msg := mail.Message{
		To:      n.to,
		Subject: fmt.Sprintf("New submission (Form %d)", e.FormID),
		Body:    EmailBody(e),
	}
	if reply := strings.TrimSpace(e.Data["email"]); schema.IsEmail(reply) {
		msg.ReplyTo = reply
	}
	return n.sender.Send(ctx, msg)
}

// EmailBody renders the plain-text body: ids first, then one "key: value"
// line per field in form order.
func EmailBody(e events.SubmissionCreatedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submission ID: %d\n", e.SubmissionID)
	fmt.Fprintf(&b, "Form ID: %d\n", e.FormID)
	b.WriteString("\nData:\n")
	for _, k := range e.Keys() {
		fmt.Fprintf(&b, "%s: %s\n", k, e.Data[k])
	}
	return b.String()
}
