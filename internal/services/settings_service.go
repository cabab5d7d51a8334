// Package services – SettingsService
//
// This file implements the site-wide settings used by the notification
// pipeline. Saving settings rebuilds the dispatcher's notifier set, so a new
// endpoint takes effect for the next submission.
package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/notify"
	"github.com/tbourn/go-form-engine/internal/schema"
)

// SettingsRepo defines the persistence contract required by SettingsService.
type SettingsRepo interface {
	GetSetting(ctx context.Context, db *gorm.DB, key, def string) (string, error)
	AllSettings(ctx context.Context, db *gorm.DB) (map[string]string, error)
	SetSettings(ctx context.Context, db *gorm.DB, values map[string]string) error
}

// NotifierSink receives a rebuilt notifier set.
type NotifierSink interface {
	Replace(notifiers []notify.Notifier)
}

// SettingsService reads and writes notifier settings.
type SettingsService struct {
	DB     *gorm.DB
	Repo   SettingsRepo
	Sink   NotifierSink
	Deps   notify.Deps
	Logger zerolog.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(db *gorm.DB, r SettingsRepo, sink NotifierSink, deps notify.Deps, logger zerolog.Logger) *SettingsService {
	return &SettingsService{DB: db, Repo: r, Sink: sink, Deps: deps, Logger: logger}
}

// Get returns the stored value for key, or def when absent.
func (s *SettingsService) Get(ctx context.Context, key, def string) (string, error) {
	return s.Repo.GetSetting(ctx, s.DB, key, def)
}

// All returns every notifier setting; absent keys read as "".
func (s *SettingsService) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.Repo.AllSettings(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(notify.Keys))
	for _, k := range notify.Keys {
		out[k] = stored[k]
	}
	return out, nil
}

// Update validates and stores values, then rebuilds the notifiers.
//
// Only known keys are accepted. The e-mail value is sanitized and must be
// empty or a valid address; URLs are trimmed and must be empty or http(s).
func (s *SettingsService) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(values))
	for k, v := range values {
		if !slices.Contains(notify.Keys, k) {
			return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, k)
		}
		switch k {
		case notify.KeyNotifyEmail:
			v = notify.NormalizeEmailSetting(v)
			if v != "" && !schema.IsEmail(v) {
				return nil, fmt.Errorf("%w: %s must be a valid email address", ErrInvalidSetting, k)
			}
		default:
			v = notify.NormalizeURLSetting(v)
			if !notify.ValidWebhookURL(v) {
				return nil, fmt.Errorf("%w: %s must be an http(s) URL", ErrInvalidSetting, k)
			}
		}
		clean[k] = v
	}

	if err := s.Repo.SetSettings(ctx, s.DB, clean); err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s.All(ctx)
}

// Reload rebuilds the notifier set from the stored settings.
func (s *SettingsService) Reload(ctx context.Context) error {
	all, err := s.All(ctx)
	if err != nil {
		return err
	}
	notifiers := notify.FromSettings(func(k string) string { return all[k] }, s.Deps)
	if s.Sink != nil {
		s.Sink.Replace(notifiers)
	}

	ev := s.Logger.Info()
	for _, n := range notifiers {
		ev = ev.Bool(n.Name(), n.IsEnabled())
	}
	ev.Msg("notifiers configured")
	return nil
}
