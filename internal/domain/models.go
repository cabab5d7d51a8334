// Package domain defines the persistence models for forms, submissions, and
// settings. These types are mapped with GORM and form the core data layer of
// the form engine.
package domain

import (
	"encoding/json"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// Form is a form definition owned by site administrators.
//
// Fields:
//   - ID: auto-increment primary key, used by embedders to reference the form.
//   - Title: display title.
//   - Slug: URL-safe identifier, unique across forms.
//   - Config: stored schema payload (see package schema); normalized on read.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Form struct {
	ID        uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null"`
	Slug      string    `json:"slug"       gorm:"type:varchar(255);not null;uniqueIndex:ux_forms_slug"`
	Config    string    `json:"-"          gorm:"type:text;not null;default:'{}'"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Form.
func (Form) TableName() string { return "forms" }

// Submission is one accepted set of field values posted to a form. Rows are
// written once and never updated.
//
// Fields:
//   - ID: auto-increment primary key.
//   - FormID: referenced form; not a foreign key so submissions outlive forms.
//   - Data: JSON object mapping field id to the sanitized string value.
//   - SearchText: case-folded copy of Data that substring search runs against.
//   - IPAddress: submitter address (optional).
//   - CreatedAt: server-side insertion time (UTC).
type Submission struct {
	ID         uint64    `json:"id"         gorm:"primaryKey;autoIncrement"`
	FormID     uint64    `json:"form_id"    gorm:"not null;index:idx_submissions_form"`
	Data       string    `json:"-"          gorm:"type:text;not null"`
	SearchText string    `json:"-"          gorm:"type:text;not null;default:''"`
	IPAddress  *string   `json:"ip_address" gorm:"type:varchar(45)"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }

// BeforeSave keeps SearchText in step with Data.
func (s *Submission) BeforeSave(*gorm.DB) error {
	s.SearchText = FoldSearch(s.Data)
	return nil
}

// FoldSearch maps s to the form used for case-insensitive matching: NFC
// composed, then Unicode case folded. Stored text and search terms must both
// go through it.
func FoldSearch(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Values decodes Data. Malformed payloads decode to an empty map; reads never
// enforce a schema.
func (s Submission) Values() map[string]string {
	out := map[string]string{}
	if s.Data == "" {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(s.Data), &raw); err != nil {
		return out
	}
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, _ := json.Marshal(t)
			out[k] = string(b)
		}
	}
	return out
}

// MarshalJSON exposes the decoded data alongside the row columns.
func (s Submission) MarshalJSON() ([]byte, error) {
	type alias Submission
	return json.Marshal(struct {
		alias
		Data map[string]string `json:"data"`
	}{alias: alias(s), Data: s.Values()})
}

// Setting is one key/value entry of the site-wide settings store.
type Setting struct {
	Key       string    `gorm:"type:varchar(191);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string { return "settings" }
