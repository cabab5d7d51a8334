// Package handlers defines the error codes carried in every API error
// envelope. Clients branch on the code; the message is for humans.
//
// Example:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "validation_failed",
//	  "message": "submission has errors",
//	  "errors": ["Name is required."]
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	ErrCodeValidationFailed = "validation_failed"
	ErrCodeSubmitFailed     = "submit_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeUpdateFailed     = "update_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeExportFailed     = "export_failed"
	ErrCodeInvalidSetting   = "invalid_setting"
)

// Messages shown for failures whose cause must stay server-side.
const (
	msgSubmitFailed = "could not save your submission, please try again later"
	msgInternal     = "internal server error"
)
