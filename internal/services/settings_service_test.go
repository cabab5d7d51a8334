package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-form-engine/internal/mail"
	"github.com/tbourn/go-form-engine/internal/notify"
)

type captureSink struct{ last []notify.Notifier }

func (c *captureSink) Replace(ns []notify.Notifier) { c.last = ns }

func enabledByName(ns []notify.Notifier) map[string]bool {
	out := map[string]bool{}
	for _, n := range ns {
		out[n.Name()] = n.IsEnabled()
	}
	return out
}

func TestSettingsService_UpdateValidatesAndReloads(t *testing.T) {
	sink := &captureSink{}
	s := NewSettingsService(newTestDB(t), GormRepo{}, sink, notify.Deps{Mail: mail.NewMockSender()}, zerolog.Nop())
	ctx := context.Background()

	got, err := s.Update(ctx, map[string]string{
		notify.KeyNotifyEmail:     " Owner@Example.com ",
		notify.KeySlackWebhookURL: " https://hooks.slack.example/T1 ",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got[notify.KeyNotifyEmail] != "Owner@Example.com" || got[notify.KeySlackWebhookURL] != "https://hooks.slack.example/T1" {
		t.Fatalf("stored = %v", got)
	}
	if got[notify.KeyCustomWebhookURL] != "" {
		t.Fatalf("absent key should read empty: %v", got)
	}
	en := enabledByName(sink.last)
	if !en["email"] || !en["chat_webhook"] || en["webhook"] {
		t.Fatalf("enablement = %v", en)
	}

	v, err := s.Get(ctx, notify.KeyCustomWebhookURL, "fallback")
	if err != nil || v != "fallback" {
		t.Fatalf("Get default = %q, %v", v, err)
	}
}

func TestSettingsService_RejectsInvalidValues(t *testing.T) {
	s := NewSettingsService(newTestDB(t), GormRepo{}, nil, notify.Deps{}, zerolog.Nop())
	ctx := context.Background()

	for _, in := range []map[string]string{
		{"smtp_password": "x"},
		{notify.KeyNotifyEmail: "not-an-email"},
		{notify.KeyCustomWebhookURL: "ftp://example.com"},
	} {
		if _, err := s.Update(ctx, in); !errors.Is(err, ErrInvalidSetting) {
			t.Fatalf("Update(%v): expected ErrInvalidSetting, got %v", in, err)
		}
	}
	all, _ := s.All(ctx)
	for k, v := range all {
		if v != "" {
			t.Fatalf("rejected update must not store anything: %s=%q", k, v)
		}
	}
}

func TestSettingsService_ClearingDisables(t *testing.T) {
	sink := &captureSink{}
	s := NewSettingsService(newTestDB(t), GormRepo{}, sink, notify.Deps{}, zerolog.Nop())
	ctx := context.Background()

	_, _ = s.Update(ctx, map[string]string{notify.KeyCustomWebhookURL: "https://x.example.com"})
	if !enabledByName(sink.last)["webhook"] {
		t.Fatal("webhook should be enabled")
	}
	_, _ = s.Update(ctx, map[string]string{notify.KeyCustomWebhookURL: ""})
	if enabledByName(sink.last)["webhook"] {
		t.Fatal("webhook should be disabled after clearing")
	}
}
