// Package notify fans a persisted submission out to external channels.
//
// Three notifier variants exist: e-mail, chat webhook and generic webhook.
// Each carries its own validated endpoint and reports whether it is enabled;
// the Dispatcher calls only enabled notifiers and isolates every call so a
// slow, failing or panicking channel never affects the others or the
// submitting request.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tbourn/go-form-engine/internal/events"
	"github.com/tbourn/go-form-engine/internal/mail"
	"github.com/tbourn/go-form-engine/internal/schema"
)

// Notifier delivers a submission event to one channel.
type Notifier interface {
	// Name is a stable, low-cardinality identifier used in logs and metrics.
	Name() string
	IsEnabled() bool
	Notify(ctx context.Context, e events.SubmissionCreatedEvent) error
}

// Settings keys holding channel endpoints.
const (
	KeyNotifyEmail      = "notify_email"
	KeySlackWebhookURL  = "slack_webhook_url"
	KeyCustomWebhookURL = "custom_webhook_url"
)

// Keys lists every settings key the notifiers read.
var Keys = []string{KeyNotifyEmail, KeySlackWebhookURL, KeyCustomWebhookURL}

// Deps are the outbound primitives shared by notifiers built from settings.
type Deps struct {
	Mail     mail.Sender
	HTTP     *http.Client
	FromName string
	Now      func() time.Time
}

// FromSettings builds the full notifier set from a settings lookup. Every
// variant is always present; blank or invalid endpoints leave it disabled.
func FromSettings(get func(key string) string, deps Deps) []Notifier {
	return []Notifier{
		NewEmailNotifier(get(KeyNotifyEmail), deps.Mail),
		NewChatWebhookNotifier(get(KeySlackWebhookURL), deps.HTTP),
		NewGenericWebhookNotifier(get(KeyCustomWebhookURL), deps.HTTP, deps.Now),
	}
}

// NormalizeEmailSetting sanitizes an e-mail endpoint value.
func NormalizeEmailSetting(v string) string { return schema.SanitizeEmail(v) }

// NormalizeURLSetting trims a webhook URL value.
func NormalizeURLSetting(v string) string { return strings.TrimSpace(v) }
