package infrastructure

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("authentication credentials were not provided or are invalid")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInternalServer    = errors.New("internal server error")

	ErrMissingToken = fmt.Errorf("%w: missing access token", ErrUnauthenticated)
	ErrInvalidToken = fmt.Errorf("%w: invalid access token", ErrUnauthenticated)
	ErrTokenExpired = fmt.Errorf("%w: access token has expired", ErrUnauthenticated)
)

// ValidationError is a field-level input failure. It matches ErrInvalidInput
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
