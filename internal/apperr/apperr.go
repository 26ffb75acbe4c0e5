// ABOUTME: Error taxonomy for the bookbrain backend
// ABOUTME: Backend failures, not-found, and validation errors mapped to HTTP at the handler boundary
package apperr

import "fmt"

// UnavailableError indicates an external backend (embedding, vector index, or
// generation) is unreachable or misconfigured. Callers should treat it as
// retryable. The wrapped cause is logged server-side and never shown to users.
type UnavailableError struct {
	Service string // "embedding", "search", "generation"
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// NotFoundError indicates a referenced entity (section, profile) does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ValidationError indicates a malformed request, rejected before any backend call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unavailable wraps a backend failure for the named service.
func Unavailable(service string, err error) error {
	return &UnavailableError{Service: service, Err: err}
}

// NotFound reports a missing entity.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Invalid reports a failed request validation.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
