package account

import (
	"errors"
	"strings"
)

// Workflow errors. Transport code maps these to status codes.
var (
	// ErrAuthentication is returned for any bad email/password combination.
	// It never says which half was wrong.
	ErrAuthentication  = errors.New("authentication failed")
	ErrForbidden       = errors.New("caller is not a member of the organisation")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every invalid field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// NotFoundError reports a referenced resource that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// Resource names used in NotFoundError.
const (
	ResourceUser         = "user"
	ResourceOrganisation = "organisation"
)
