// Package services – FormService
//
// This file implements FormService, which owns the lifecycle of form
// definitions: title and slug rules, schema re-derivation from field rows on
// every save, and resolution of the stored payload into a normalized schema.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/domain"
	"github.com/tbourn/go-form-engine/internal/repo"
	"github.com/tbourn/go-form-engine/internal/schema"
)

// FormRepo defines the repository contract required by FormService.
type FormRepo interface {
	CreateForm(ctx context.Context, db *gorm.DB, title, slug, config string) (*domain.Form, error)
	GetForm(ctx context.Context, db *gorm.DB, id uint64) (*domain.Form, error)
	GetFormBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Form, error)
	ListForms(ctx context.Context, db *gorm.DB) ([]domain.Form, error)
	UpdateForm(ctx context.Context, db *gorm.DB, id uint64, title, slug, config string) (*domain.Form, error)
	DeleteForm(ctx context.Context, db *gorm.DB, id uint64) error
}

// FormInput is an admin save of a form definition.
//
// A nil Fields keeps the stored fields; a non-nil slice replaces them
// entirely. Nil Logic and Integrations keep the stored values.
type FormInput struct {
	Title        string                     `json:"title"`
	Slug         string                     `json:"slug"`
	Fields       []schema.FieldRow          `json:"fields"`
	Logic        []json.RawMessage          `json:"logic"`
	Integrations map[string]json.RawMessage `json:"integrations"`
}

// FormDefinition is a stored form with its resolved schema.
type FormDefinition struct {
	domain.Form
	Schema   schema.FormSchema `json:"schema"`
	Warnings []string          `json:"warnings,omitempty"`
}

// FormService provides form definition operations.
type FormService struct {
	DB     *gorm.DB
	Repo   FormRepo
	Logger zerolog.Logger
}

// NewFormService constructs a FormService.
func NewFormService(db *gorm.DB, r FormRepo, logger zerolog.Logger) *FormService {
	return &FormService{
		DB:     db,
		Repo:   r,
		Logger: logger,
	}
}

// Create stores a new form. The slug is derived from the title when blank,
// and the title from the slug when only a slug is given. Forms saved without
// field rows get the default schema.
func (s *FormService) Create(ctx context.Context, in FormInput) (*FormDefinition, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "Create")
	defer span.End()

	title := schema.SanitizeText(in.Title)
	slug := schema.Token(in.Slug, '-')
	if slug == "" {
		slug = schema.Token(title, '-')
	}
	if title == "" && slug != "" {
		title = s.titleFromSlug(slug)
	}
	if title == "" || slug == "" {
		return nil, ErrTitleRequired
	}

	sch, warnings := schema.Rebuild(schema.DefaultSchema(), in.Fields, in.Logic, in.Integrations)
	f, err := s.Repo.CreateForm(ctx, s.DB, title, slug, schema.MustSerialize(sch))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	s.logWarnings(f.ID, warnings)
	return &FormDefinition{Form: *f, Schema: sch, Warnings: warnings}, nil
}

// Get returns the form with its resolved schema.
func (s *FormService) Get(ctx context.Context, id uint64) (*FormDefinition, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "Get",
		trace.WithAttributes(attribute.Int64("form.id", int64(id))))
	defer span.End()

	f, err := s.Repo.GetForm(ctx, s.DB, id)
	if err != nil {
		return nil, mapFormErr(err)
	}
	return s.resolve(f), nil
}

// GetBySlug returns the form identified by slug.
func (s *FormService) GetBySlug(ctx context.Context, slug string) (*FormDefinition, error) {
	f, err := s.Repo.GetFormBySlug(ctx, s.DB, schema.Token(slug, '-'))
	if err != nil {
		return nil, mapFormErr(err)
	}
	return s.resolve(f), nil
}

// Schema returns the normalized schema of form id. Malformed stored payloads
// resolve to the default schema; warnings are logged, never returned.
func (s *FormService) Schema(ctx context.Context, id uint64) (schema.FormSchema, error) {
	def, err := s.Get(ctx, id)
	if err != nil {
		return schema.FormSchema{}, err
	}
	return def.Schema, nil
}

// List returns all forms, newest first.
func (s *FormService) List(ctx context.Context) ([]domain.Form, error) {
	items, err := s.Repo.ListForms(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Form{}
	}
	return items, nil
}

// Update saves a form. Blank title or slug keep the stored values. The schema
// is rebuilt from the stored one so omitted parts survive the save.
func (s *FormService) Update(ctx context.Context, id uint64, in FormInput) (*FormDefinition, error) {
	ctx, span := otel.Tracer("services/FormService").Start(ctx, "Update",
		trace.WithAttributes(attribute.Int64("form.id", int64(id))))
	defer span.End()

	cur, err := s.Repo.GetForm(ctx, s.DB, id)
	if err != nil {
		return nil, mapFormErr(err)
	}

	title := schema.SanitizeText(in.Title)
	if title == "" {
		title = cur.Title
	}
	slug := schema.Token(in.Slug, '-')
	if slug == "" {
		slug = cur.Slug
	}

	prev, _ := schema.ParseString(cur.Config)
	sch, warnings := schema.Rebuild(prev, in.Fields, in.Logic, in.Integrations)

	f, err := s.Repo.UpdateForm(ctx, s.DB, id, title, slug, schema.MustSerialize(sch))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrSlugTaken
		}
		return nil, mapFormErr(err)
	}
	s.logWarnings(id, warnings)
	return &FormDefinition{Form: *f, Schema: sch, Warnings: warnings}, nil
}

// Delete removes a form. Its submissions are kept.
func (s *FormService) Delete(ctx context.Context, id uint64) error {
	return mapFormErr(s.Repo.DeleteForm(ctx, s.DB, id))
}

func (s *FormService) resolve(f *domain.Form) *FormDefinition {
	sch, warnings := schema.ParseString(f.Config)
	s.logWarnings(f.ID, warnings)
	return &FormDefinition{Form: *f, Schema: sch}
}

func (s *FormService) logWarnings(formID uint64, warnings []string) {
	for _, w := range warnings {
		s.Logger.Debug().Uint64("form_id", formID).Str("warning", w).Msg("form schema normalized")
	}
}

func (s *FormService) titleFromSlug(slug string) string {
	// Casers are stateful; build one per call.
	return cases.Title(language.Und).String(strings.ReplaceAll(slug, "-", " "))
}

func mapFormErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFormNotFound
	}
	return err
}
