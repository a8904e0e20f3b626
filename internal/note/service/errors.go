package service

import "errors"

var (
	ErrNotFound   = errors.New("note not found")
	ErrForbidden  = errors.New("access denied")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("invalid note state")
)

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}
