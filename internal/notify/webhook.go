package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tbourn/go-form-engine/internal/events"
)

const userAgent = "go-form-engine/1.0"

// ChatWebhookNotifier posts a short text summary to a chat incoming webhook.
type ChatWebhookNotifier struct {
	url    string
	client *http.Client
}

// NewChatWebhookNotifier creates a chat webhook notifier, enabled when url is
// non-empty. A nil client uses a 5s-timeout default.
func NewChatWebhookNotifier(url string, client *http.Client) *ChatWebhookNotifier {
	return &ChatWebhookNotifier{url: NormalizeURLSetting(url), client: orDefaultClient(client)}
}

// Name implements Notifier.
func (n *ChatWebhookNotifier) Name() string { return "chat_webhook" }

// IsEnabled implements Notifier.
func (n *ChatWebhookNotifier) IsEnabled() bool { return n.url != "" }

// Notify implements Notifier.
func (n *ChatWebhookNotifier) Notify(ctx context.Context, e events.SubmissionCreatedEvent) error {
	return postJSON(ctx, n.client, n.url, map[string]string{"text": ChatText(e)})
}

// ChatText renders the chat summary. Missing name or email render empty.
func ChatText(e events.SubmissionCreatedEvent) string {
	return fmt.Sprintf("New form submission\nForm ID: %d\nSubmission ID: %d\nName: %s\nEmail: %s",
		e.FormID, e.SubmissionID, e.Data["name"], e.Data["email"])
}

// GenericWebhookNotifier posts the full event envelope as JSON.
type GenericWebhookNotifier struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewGenericWebhookNotifier creates a generic webhook notifier, enabled when
// url is non-empty. now defaults to time.Now.
func NewGenericWebhookNotifier(url string, client *http.Client, now func() time.Time) *GenericWebhookNotifier {
	if now == nil {
		now = time.Now
	}
	return &GenericWebhookNotifier{url: NormalizeURLSetting(url), client: orDefaultClient(client), now: now}
}

// Name implements Notifier.
func (n *GenericWebhookNotifier) Name() string { return "webhook" }

// IsEnabled implements Notifier.
func (n *GenericWebhookNotifier) IsEnabled() bool { return n.url != "" }

// WebhookPayload is the generic webhook body.
type WebhookPayload struct {
	Event        string            `json:"event"`
	FormID       uint64            `json:"formId"`
	SubmissionID uint64            `json:"submissionId"`
	Data         map[string]string `json:"data"`
	OccurredAt   string            `json:"occurredAt"`
}

// Notify implements Notifier. occurredAt is taken at send time, in UTC.
func (n *GenericWebhookNotifier) Notify(ctx context.Context, e events.SubmissionCreatedEvent) error {
	data := e.Data
	if data == nil {
		data = map[string]string{}
	}
	return postJSON(ctx, n.client, n.url, WebhookPayload{
		Event:        events.SubmissionCreated,
		FormID:       e.FormID,
		SubmissionID: e.SubmissionID,
		Data:         data,
		OccurredAt:   n.now().UTC().Format(time.RFC3339),
	})
}

// ValidWebhookURL reports whether v is empty or an absolute http(s) URL.
func ValidWebhookURL(v string) bool {
	if v == "" {
		return true
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func postJSON(ctx context.Context, client *http.Client, target string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func orDefaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 5 * time.Second}
}
