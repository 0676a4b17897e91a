// Package apperr holds the typed errors shared by services and handlers.
// Handlers map them onto HTTP status codes; services never return raw
// database errors for business-rule violations.
package apperr

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

func NotFound(msg string) error {
	return &NotFoundError{Message: msg}
}

func Conflict(msg string) error {
	return &ConflictError{Message: msg}
}
