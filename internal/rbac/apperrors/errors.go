// Package apperrors holds the domain error taxonomy shared by the stores, the
// resolver and the services. Handlers map these onto HTTP responses.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated means no valid principal was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the principal is valid but lacks the grant.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound = errors.New("not found")

	// ErrConflict covers uniqueness violations and protected entities.
	ErrConflict = errors.New("conflict")

	ErrBadRequest = errors.New("bad request")

	// ErrBackendUnavailable is only produced on the search sync path.
	ErrBackendUnavailable = errors.New("index backend unavailable")
)

// ForbiddenError names the resource and action that were denied.
type ForbiddenError struct {
	Resource string
	Action   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("permission denied: %s:%s", e.Resource, e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

func Forbidden(resource, action string) error {
	return &ForbiddenError{Resource: resource, Action: action}
}

// FieldError is a single per-field validation problem.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found in one pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, " ")
}

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

func NewValidationError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// Wrap adds context while keeping the chain intact for errors.Is.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Conflictf builds a conflict error with a caller-facing message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func BadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Message strips the sentinel prefix so the remaining text can be shown to a caller.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrConflict, ErrNotFound, ErrBadRequest, ErrForbidden, ErrUnauthenticated} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
