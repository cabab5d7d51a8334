// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/domain"
)

// SubmissionsStats returns the number of submissions matching f and the
// greatest submission id among them. Submissions are append-only, so the pair
// changes whenever the filtered listing does (inserts and deletes alike).
//
// Paging fields of f are ignored. When nothing matches, both values are 0.
func SubmissionsStats(ctx context.Context, db *gorm.DB, f SubmissionFilter) (count int64, maxID uint64, err error) {
	q := func() *gorm.DB {
		return applySubmissionFilter(db.WithContext(ctx).Model(&domain.Submission{}), f)
	}

	if err = q().Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct{ ID uint64 }
	if err = q().Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
