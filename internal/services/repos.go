package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/domain"
	"github.com/tbourn/go-form-engine/internal/repo"
)

// GormRepo adapts the package-level repo functions to the service repository
// interfaces.
type GormRepo struct{}

var (
	_ FormRepo       = GormRepo{}
	_ SubmissionRepo = GormRepo{}
	_ SettingsRepo   = GormRepo{}
)

func (GormRepo) CreateForm(ctx context.Context, db *gorm.DB, title, slug, config string) (*domain.Form, error) {
	return repo.CreateForm(ctx, db, title, slug, config)
}
func (GormRepo) GetForm(ctx context.Context, db *gorm.DB, id uint64) (*domain.Form, error) {
	return repo.GetForm(ctx, db, id)
}
func (GormRepo) GetFormBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Form, error) {
	return repo.GetFormBySlug(ctx, db, slug)
}
func (GormRepo) ListForms(ctx context.Context, db *gorm.DB) ([]domain.Form, error) {
	return repo.ListForms(ctx, db)
}
func (GormRepo) UpdateForm(ctx context.Context, db *gorm.DB, id uint64, title, slug, config string) (*domain.Form, error) {
	return repo.UpdateForm(ctx, db, id, title, slug, config)
}
func (GormRepo) DeleteForm(ctx context.Context, db *gorm.DB, id uint64) error {
	return repo.DeleteForm(ctx, db, id)
}

func (GormRepo) SaveSubmission(ctx context.Context, db *gorm.DB, formID uint64, values map[string]string, ip *string) (uint64, error) {
	return repo.SaveSubmission(ctx, db, formID, values, ip)
}
func (GormRepo) ListSubmissions(ctx context.Context, db *gorm.DB, f repo.SubmissionFilter) ([]domain.Submission, error) {
	return repo.ListSubmissions(ctx, db, f)
}
func (GormRepo) CountSubmissions(ctx context.Context, db *gorm.DB, f repo.SubmissionFilter) (int64, error) {
	return repo.CountSubmissions(ctx, db, f)
}
func (GormRepo) FindSubmission(ctx context.Context, db *gorm.DB, id uint64) (*domain.Submission, error) {
	return repo.FindSubmission(ctx, db, id)
}
func (GormRepo) DeleteSubmission(ctx context.Context, db *gorm.DB, id uint64) (bool, error) {
	return repo.DeleteSubmission(ctx, db, id)
}
func (GormRepo) SubmissionsStats(ctx context.Context, db *gorm.DB, f repo.SubmissionFilter) (int64, uint64, error) {
	return repo.SubmissionsStats(ctx, db, f)
}
func (GormRepo) GetIdempotency(ctx context.Context, db *gorm.DB, formID uint64, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, formID, key, now)
}
func (GormRepo) CreateIdempotency(ctx context.Context, db *gorm.DB, formID uint64, key string, submissionID uint64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, formID, key, submissionID, status, ttl)
}

func (GormRepo) GetSetting(ctx context.Context, db *gorm.DB, key, def string) (string, error) {
	return repo.GetSetting(ctx, db, key, def)
}
func (GormRepo) AllSettings(ctx context.Context, db *gorm.DB) (map[string]string, error) {
	return repo.AllSettings(ctx, db)
}
func (GormRepo) SetSettings(ctx context.Context, db *gorm.DB, values map[string]string) error {
	return repo.SetSettings(ctx, db, values)
}
