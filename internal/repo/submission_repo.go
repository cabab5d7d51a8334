// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Submission
// model: append-only inserts, filtered listing, counting and lookup.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-form-engine/internal/domain"
)

// Sortable submission columns.
const (
	OrderByCreatedAt = "created_at"
	OrderByID        = "id"
	OrderByFormID    = "form_id"
)

// DefaultListLimit is the page size used by callers that do not pick one.
const DefaultListLimit = 20

// SubmissionFilter narrows and orders a submission listing.
//
// FormID 0 matches every form. Search is a substring matched against the
// stored payload, ignoring case for every script (see domain.FoldSearch). Limit <= 0 means unlimited.
// OrderBy accepts the Order* constants (camelCase aliases are tolerated);
// anything else sorts by creation time. Order is "asc" or "desc" (default).
type SubmissionFilter struct {
	FormID  uint64
	Search  string
	Limit   int
	Offset  int
	OrderBy string
	Order   string
}

// SortColumn resolves OrderBy against the whitelist.
func (f SubmissionFilter) SortColumn() string {
	switch strings.ToLower(strings.TrimSpace(f.OrderBy)) {
	case "id":
		return OrderByID
	case "form_id", "formid":
		return OrderByFormID
	default:
		return OrderByCreatedAt
	}
}

// SortDirection resolves Order to "asc" or "desc".
func (f SubmissionFilter) SortDirection() string {
	if strings.EqualFold(strings.TrimSpace(f.Order), "asc") {
		return "asc"
	}
	return "desc"
}

// SaveSubmission persists one submission and returns its new id. The values
// are stored as a JSON object in a single insert.
func SaveSubmission(ctx context.Context, db *gorm.DB, formID uint64, values map[string]string, ip *string) (uint64, error) {
	data, err := EncodeValues(values)
	if err != nil {
		return 0, err
	}
	s := &domain.Submission{
		FormID:    formID,
		Data:      data,
		IPAddress: ip,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return 0, err
	}
	return s.ID, nil
}

// EncodeValues serializes a value map to the stored payload format. Keys are
// sorted and markup characters are kept literal so substring search matches
// what the submitter typed.
func EncodeValues(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// ListSubmissions returns submissions matching f in the requested order.
// Ties on the sort column are broken by id in the same direction.
func ListSubmissions(ctx context.Context, db *gorm.DB, f SubmissionFilter) ([]domain.Submission, error) {
	col, dir := f.SortColumn(), f.SortDirection()

	q := applySubmissionFilter(db.WithContext(ctx).Model(&domain.Submission{}), f).
		Order(col + " " + dir)
	if col != OrderByID {
		q = q.Order("id " + dir)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []domain.Submission
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountSubmissions returns how many submissions match f, ignoring paging.
func CountSubmissions(ctx context.Context, db *gorm.DB, f SubmissionFilter) (int64, error) {
	var total int64
	err := applySubmissionFilter(db.WithContext(ctx).Model(&domain.Submission{}), f).
		Count(&total).Error
	return total, err
}

// FindSubmission fetches a submission by id or returns ErrNotFound.
func FindSubmission(ctx context.Context, db *gorm.DB, id uint64) (*domain.Submission, error) {
	var s domain.Submission
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSubmission removes a submission. Deleting a missing id is not an error;
// the returned flag reports whether a row was removed.
func DeleteSubmission(ctx context.Context, db *gorm.DB, id uint64) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Submission{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func applySubmissionFilter(q *gorm.DB, f SubmissionFilter) *gorm.DB {
	if f.FormID > 0 {
		q = q.Where("form_id = ?", f.FormID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(`search_text LIKE ? ESCAPE '\'`, "%"+escapeLike(domain.FoldSearch(s))+"%")
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
