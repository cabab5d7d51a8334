package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-form-engine/internal/events"
	"github.com/tbourn/go-form-engine/internal/mail"
)

func sampleEvent() events.SubmissionCreatedEvent {
	return events.NewSubmissionCreated(3, 42, map[string]string{
		"name":    "Ada",
		"email":   "ada@example.com",
		"message": "Hello",
	})
}

func TestEmailNotifier_Enabled(t *testing.T) {
	if NewEmailNotifier("not-an-email", nil).IsEnabled() {
		t.Fatal("invalid address must disable")
	}
	if NewEmailNotifier("", nil).IsEnabled() {
		t.Fatal("empty address must disable")
	}
	if !NewEmailNotifier("a@b.com", nil).IsEnabled() {
		t.Fatal("valid address must enable")
	}
}

func TestEmailNotifier_ComposesMessage(t *testing.T) {
	m := mail.NewMockSender()
	n := NewEmailNotifier("owner@example.com", m)

	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	msg, ok := m.Last()
	if !ok {
		t.Fatal("no message sent")
	}
	if msg.To != "owner@example.com" || msg.ReplyTo != "ada@example.com" {
		t.Fatalf("unexpected addressing: %+v", msg)
	}
	if msg.Subject != "New submission (Form 3)" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	want := "Submission ID: 42\nForm ID: 3\n\nData:\nemail: ada@example.com\nmessage: Hello\nname: Ada\n"
	if msg.Body != want {
		t.Fatalf("body = %q, want %q", msg.Body, want)
	}
}

func TestEmailBody_FollowsFormFieldOrder(t *testing.T) {
	e := sampleEvent().WithFields([]string{"name", "email", "message"})
	e.Data["referrer"] = "newsletter"

	want := "Submission ID: 42\nForm ID: 3\n\nData:\nname: Ada\nemail: ada@example.com\nmessage: Hello\nreferrer: newsletter\n"
	if got := EmailBody(e); got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}
}

func TestEmailNotifier_NoReplyToForInvalidSubmitterEmail(t *testing.T) {
	m := mail.NewMockSender()
	n := NewEmailNotifier("owner@example.com", m)
	e := events.NewSubmissionCreated(1, 1, map[string]string{"email": "nope"})
	if err := n.Notify(context.Background(), e); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if msg, _ := m.Last(); msg.ReplyTo != "" {
		t.Fatalf("unexpected Reply-To %q", msg.ReplyTo)
	}
}

func TestEmailNotifier_SenderFailureAndMissingSender(t *testing.T) {
	m := mail.NewMockSender()
	m.ShouldFail = true
	if err := NewEmailNotifier("o@example.com", m).Notify(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected send failure")
	}
	if err := NewEmailNotifier("o@example.com", nil).Notify(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error without sender")
	}
}

func TestChatWebhookNotifier_PostsText(t *testing.T) {
	var got map[string]string
	var ctype string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewChatWebhookNotifier(srv.URL, srv.Client())
	if !n.IsEnabled() {
		t.Fatal("expected enabled")
	}
	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if ctype != "application/json" {
		t.Fatalf("content-type = %q", ctype)
	}
	if len(got) != 1 {
		t.Fatalf("payload must have only text: %v", got)
	}
	want := "New form submission\nForm ID: 3\nSubmission ID: 42\nName: Ada\nEmail: ada@example.com"
	if got["text"] != want {
		t.Fatalf("text = %q", got["text"])
	}
}

func TestChatText_MissingValuesRenderEmpty(t *testing.T) {
	text := ChatText(events.NewSubmissionCreated(1, 2, nil))
	if !strings.HasSuffix(text, "\nName: \nEmail: ") {
		t.Fatalf("missing values should render empty: %q", text)
	}
}

func TestChatWebhookNotifier_DisabledWhenBlank(t *testing.T) {
	if NewChatWebhookNotifier("   ", nil).IsEnabled() {
		t.Fatal("blank url must disable")
	}
}

func TestGenericWebhookNotifier_Envelope(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	at := time.Date(2024, 3, 9, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	n := NewGenericWebhookNotifier(srv.URL, srv.Client(), func() time.Time { return at })
	if err := n.Notify(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	var p WebhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode: %v (%s)", err, raw)
	}
	if p.Event != "submission.created" || p.FormID != 3 || p.SubmissionID != 42 {
		t.Fatalf("unexpected envelope: %+v", p)
	}
	if p.OccurredAt != "2024-03-09T09:30:00Z" {
		t.Fatalf("occurredAt = %q", p.OccurredAt)
	}
	if p.Data["name"] != "Ada" || len(p.Data) != 3 {
		t.Fatalf("data = %v", p.Data)
	}
	for _, key := range []string{`"formId"`, `"submissionId"`, `"occurredAt"`} {
		if !strings.Contains(string(raw), key) {
			t.Fatalf("payload missing %s: %s", key, raw)
		}
	}
}

func TestGenericWebhookNotifier_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewGenericWebhookNotifier(srv.URL, srv.Client(), nil)
	if err := n.Notify(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestValidWebhookURL(t *testing.T) {
	cases := map[string]bool{
		"":                          true,
		"https://hooks.example.com": true,
		"http://localhost:8080/x":   true,
		"ftp://example.com":         false,
		"example.com/hook":          false,
		"https://":                  false,
	}
	for in, want := range cases {
		if got := ValidWebhookURL(in); got != want {
			t.Fatalf("ValidWebhookURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromSettings_BuildsAllVariants(t *testing.T) {
	vals := map[string]string{KeyNotifyEmail: "o@example.com", KeyCustomWebhookURL: "https://x.example.com"}
	ns := FromSettings(func(k string) string { return vals[k] }, Deps{Mail: mail.NewMockSender()})
	if len(ns) != 3 {
		t.Fatalf("expected 3 notifiers, got %d", len(ns))
	}
	enabled := map[string]bool{}
	for _, n := range ns {
		enabled[n.Name()] = n.IsEnabled()
	}
	if !enabled["email"] || enabled["chat_webhook"] || !enabled["webhook"] {
		t.Fatalf("unexpected enablement: %v", enabled)
	}
}
