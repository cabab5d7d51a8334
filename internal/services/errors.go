// Package services implements the form engine's application logic: form
// definitions, the submission pipeline, and notifier settings.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrFormNotFound indicates that the requested form does not exist.
	ErrFormNotFound = errors.New("form not found")

	// ErrSubmissionNotFound indicates that the requested submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrPersistenceFailed is returned when a submission could not be stored.
	// Nothing was published for it.
	ErrPersistenceFailed = errors.New("submission could not be saved")

	// ErrTitleRequired is returned when a form has neither a title nor a slug.
	ErrTitleRequired = errors.New("title is required")

	// ErrSlugTaken is returned when another form already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")

	// ErrInvalidSetting is returned for unknown settings keys or malformed values.
	ErrInvalidSetting = errors.New("invalid setting")
)

// ValidationError carries every field error of a rejected submission, in
// schema field order. Messages reference field labels, never ids.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, " ")
}
