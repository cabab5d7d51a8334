// Package validation checks posted form values against a resolved schema.
//
// Validation is exhaustive: every field is sanitized and checked, and all
// problems are collected so a submitter sees them at once. Error messages
// reference field labels, never ids.
package validation

import (
	"fmt"

	"github.com/tbourn/go-form-engine/internal/schema"
)

// Validate sanitizes input for every field of s, in schema order, and returns
// the sanitized values together with the collected error messages.
//
// The returned map always holds exactly one entry per schema field, including
// empty strings for fields that were not posted. Keys in input that are not
// part of the schema are ignored. Callers must not persist when errs is
// non-empty.
func Validate(s schema.FormSchema, input map[string]string) (values map[string]string, errs []string) {
	values = make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		v := Sanitize(f, input[f.ID])
		values[f.ID] = v

		if f.Required && v == "" {
			errs = append(errs, fmt.Sprintf("%s is required.", f.Label))
			continue
		}
		if f.Type == schema.TypeEmail && v != "" && !schema.IsEmail(v) {
			errs = append(errs, fmt.Sprintf("%s must be a valid email address.", f.Label))
		}
	}
	return values, errs
}

// Sanitize applies the type-specific cleaning rule of f to raw.
func Sanitize(f schema.Field, raw string) string {
	switch f.Type {
	case schema.TypeEmail:
		return schema.SanitizeEmail(raw)
	case schema.TypeTextarea:
		return schema.SanitizeMultiline(raw)
	default:
		return schema.SanitizeText(raw)
	}
}
