// Package services – SubmissionService
//
// This file implements the submission pipeline: resolve the target form's
// schema, validate and sanitize the posted values, persist them, and publish
// a SubmissionCreated event. It also exposes the read side used by admin
// collaborators (list, count, view, delete, CSV export).
//
// Ordering guarantees:
//   - Nothing is persisted when validation fails.
//   - Nothing is published unless persistence succeeded.
//   - A replayed Idempotency-Key returns the original id without persisting
//     or publishing again.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/domain"
	"github.com/tbourn/go-form-engine/internal/events"
	"github.com/tbourn/go-form-engine/internal/export"
	"github.com/tbourn/go-form-engine/internal/repo"
	"github.com/tbourn/go-form-engine/internal/schema"
	"github.com/tbourn/go-form-engine/internal/validation"
)

// SubmissionRepo defines the persistence contract required by SubmissionService.
type SubmissionRepo interface {
	SaveSubmission(ctx context.Context, db *gorm.DB, formID uint64, values map[string]string, ip *string) (uint64, error)
	ListSubmissions(ctx context.Context, db *gorm.DB, f repo.SubmissionFilter) ([]domain.Submission, error)
	CountSubmissions(ctx context.Context, db *gorm.DB, f repo.SubmissionFilter) (int64, error)
	FindSubmission(ctx context.Context, db *gorm.DB, id uint64) (*domain.Submission, error)
	DeleteSubmission(ctx context.Context, db *gorm.DB, id uint64) (bool, error)
	SubmissionsStats(ctx context.Context, db *gorm.DB, f repo.SubmissionFilter) (int64, uint64, error)

	GetIdempotency(ctx context.Context, db *gorm.DB, formID uint64, key string, now time.Time) (*domain.Idempotency, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, formID uint64, key string, submissionID uint64, status int, ttl time.Duration) (*domain.Idempotency, error)
}

// SchemaResolver looks up the normalized schema of a form.
type SchemaResolver interface {
	Schema(ctx context.Context, formID uint64) (schema.FormSchema, error)
}

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event)
}

// SubmitInput is one inbound submission.
type SubmitInput struct {
	FormID         uint64
	Values         map[string]string
	IPAddress      string
	IdempotencyKey string
}

// SubmitResult reports the stored submission id. Replayed is true when the id
// came from an earlier request with the same Idempotency-Key.
type SubmitResult struct {
	SubmissionID uint64
	Replayed     bool
}

// SubmissionService runs the submission pipeline.
type SubmissionService struct {
	DB      *gorm.DB
	Repo    SubmissionRepo
	Forms   SchemaResolver
	Events  Publisher
	Logger  zerolog.Logger
	IdemTTL time.Duration

	// ExportMaxRows caps CSV exports; <= 0 means no cap.
	ExportMaxRows int

	Now func() time.Time
}

// NewSubmissionService constructs a SubmissionService with a 24h idempotency
// window and a 5000-row export cap.
func NewSubmissionService(db *gorm.DB, r SubmissionRepo, forms SchemaResolver, pub Publisher, logger zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		DB:            db,
		Repo:          r,
		Forms:         forms,
		Events:        pub,
		Logger:        logger,
		IdemTTL:       24 * time.Hour,
		ExportMaxRows: 5000,
		Now:           time.Now,
	}
}

var errReplay = errors.New("idempotent replay")

// Submit validates in against the form's schema, persists the sanitized
// values, and publishes SubmissionCreated.
//
// Errors: ErrFormNotFound, *ValidationError, ErrPersistenceFailed.
func (s *SubmissionService) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	tr := otel.Tracer("services/SubmissionService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(attribute.Int64("form.id", int64(in.FormID))),
	)
	defer span.End()

	sch, err := s.Forms.Schema(ctx, in.FormID)
	if err != nil {
		return SubmitResult{}, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if rec, err := s.Repo.GetIdempotency(ctx, s.DB, in.FormID, key, s.Now().UTC()); err == nil {
			submissionsTotal.WithLabelValues(OutcomeReplayed).Inc()
			return SubmitResult{SubmissionID: rec.SubmissionID, Replayed: true}, nil
		}
	}

	values, errs := validation.Validate(sch, in.Values)
	if len(errs) > 0 {
		submissionsTotal.WithLabelValues(OutcomeInvalid).Inc()
		span.SetAttributes(attribute.Int("validation.errors", len(errs)))
		return SubmitResult{}, &ValidationError{Errors: errs}
	}

	var id uint64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newID, err := s.Repo.SaveSubmission(ctx, tx, in.FormID, values, normalizeIP(in.IPAddress))
		if err != nil {
			return err
		}
		if newID == 0 {
			return errors.New("store returned no identifier")
		}
		id = newID
		if key != "" {
			if _, err := s.Repo.CreateIdempotency(ctx, tx, in.FormID, key, id, http.StatusCreated, s.IdemTTL); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					return errReplay
				}
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errReplay) {
		// A concurrent request with the same key won; report its submission.
		if rec, gerr := s.Repo.GetIdempotency(ctx, s.DB, in.FormID, key, s.Now().UTC()); gerr == nil {
			submissionsTotal.WithLabelValues(OutcomeReplayed).Inc()
			return SubmitResult{SubmissionID: rec.SubmissionID, Replayed: true}, nil
		}
	}
	if err != nil {
		submissionsTotal.WithLabelValues(OutcomeFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.Logger.Error().Err(err).Uint64("form_id", in.FormID).Msg("submission persist failed")
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	submissionsTotal.WithLabelValues(OutcomeAccepted).Inc()
	span.SetAttributes(attribute.Int64("submission.id", int64(id)))
	if s.Events != nil {
		s.Events.Publish(ctx, events.NewSubmissionCreated(in.FormID, id, values).WithFields(sch.FieldIDs()))
	}
	return SubmitResult{SubmissionID: id}, nil
}

// List returns one page of submissions matching f plus the unpaged total.
func (s *SubmissionService) List(ctx context.Context, f repo.SubmissionFilter) ([]domain.Submission, int64, error) {
	ctx, span := otel.Tracer("services/SubmissionService").Start(ctx, "List")
	defer span.End()

	total, err := s.Repo.CountSubmissions(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Submission{}, 0, nil
	}
	items, err := s.Repo.ListSubmissions(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Count returns how many submissions match f.
func (s *SubmissionService) Count(ctx context.Context, f repo.SubmissionFilter) (int64, error) {
	return s.Repo.CountSubmissions(ctx, s.DB, f)
}

// Find returns the submission with id and whether it exists.
func (s *SubmissionService) Find(ctx context.Context, id uint64) (*domain.Submission, bool, error) {
	sub, err := s.Repo.FindSubmission(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

// Delete removes a submission; a missing id is not an error.
func (s *SubmissionService) Delete(ctx context.Context, id uint64) (bool, error) {
	return s.Repo.DeleteSubmission(ctx, s.DB, id)
}

// Stats returns the (count, max id) pair used for ETags.
func (s *SubmissionService) Stats(ctx context.Context, f repo.SubmissionFilter) (int64, uint64, error) {
	return s.Repo.SubmissionsStats(ctx, s.DB, f)
}

// Export writes matching submissions as CSV, newest first, capped at
// ExportMaxRows. It returns the number of rows written.
func (s *SubmissionService) Export(ctx context.Context, f repo.SubmissionFilter, w io.Writer) (int, error) {
	ctx, span := otel.Tracer("services/SubmissionService").Start(ctx, "Export")
	defer span.End()

	f.Offset = 0
	f.Limit = s.ExportMaxRows
	rows, err := s.Repo.ListSubmissions(ctx, s.DB, f)
	if err != nil {
		return 0, err
	}
	// A single-form export follows that form's field order.
	var fields []string
	if f.FormID > 0 {
		if sch, err := s.Forms.Schema(ctx, f.FormID); err == nil {
			fields = sch.FieldIDs()
		}
	}
	if err := export.WriteCSV(w, rows, fields...); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// normalizeIP returns nil unless v parses as an IP address.
func normalizeIP(v string) *string {
	ip := net.ParseIP(strings.TrimSpace(v))
	if ip == nil {
		return nil
	}
	out := ip.String()
	return &out
}
