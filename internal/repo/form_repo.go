// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Form model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a form is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - A slug collision on insert or update returns ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned when an insert or update violates a unique index.
var ErrDuplicate = errors.New("duplicate")

// CreateForm inserts a new form. CreatedAt and UpdatedAt are set to UTC now.
func CreateForm(ctx context.Context, db *gorm.DB, title, slug, config string) (*domain.Form, error) {
	now := time.Now().UTC()
	f := &domain.Form{
		Title:     title,
		Slug:      slug,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return f, nil
}

// GetForm fetches a single form by id.
func GetForm(ctx context.Context, db *gorm.DB, id uint64) (*domain.Form, error) {
	var f domain.Form
	if err := db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFormBySlug fetches a single form by its unique slug.
func GetFormBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Form, error) {
	var f domain.Form
	if err := db.WithContext(ctx).Where("slug = ?", slug).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

// ListForms returns all forms, newest first.
func ListForms(ctx context.Context, db *gorm.DB) ([]domain.Form, error) {
	var out []domain.Form
	err := db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&out).Error
	return out, err
}

// CountForms returns the number of stored forms.
func CountForms(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Form{}).Count(&total).Error
	return total, err
}

// UpdateForm overwrites title, slug, and config of the form with the given id
// and bumps UpdatedAt. It returns ErrNotFound when no row matched.
func UpdateForm(ctx context.Context, db *gorm.DB, id uint64, title, slug, config string) (*domain.Form, error) {
	res := db.WithContext(ctx).
		Model(&domain.Form{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      title,
			"slug":       slug,
			"config":     config,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, ErrDuplicate
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetForm(ctx, db, id)
}

// DeleteForm removes a form. Submissions referencing it are kept.
func DeleteForm(ctx context.Context, db *gorm.DB, id uint64) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Form{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedForms inserts the sample "Contact Form" and "Quote Request" forms when
// the forms table is empty. It reports how many rows were created.
func SeedForms(ctx context.Context, db *gorm.DB) (int, error) {
	n, err := CountForms(ctx, db)
	if err != nil || n > 0 {
		return 0, err
	}
	seeds := []struct{ title, slug string }{
		{"Contact Form", "contact-form"},
		{"Quote Request", "quote-request"},
	}
	created := 0
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range seeds {
			if _, err := CreateForm(ctx, tx, s.title, s.slug, "{}"); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
