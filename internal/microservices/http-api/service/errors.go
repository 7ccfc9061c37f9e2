package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"yamdb/internal/microservices/http-api/repository"
)

// Error kinds returned by every service. Handlers map them to HTTP statuses.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrUpstream         = errors.New("upstream failure")
	ErrInvalidCode      = errors.New("invalid confirmation code")
	ErrUnauthenticated  = errors.New("authentication required")
)

// ValidationError reports per-field problems; it matches ErrValidation.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add appends msg to field and returns e for chaining.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PublicError pairs an error kind with a message safe to show clients.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }
func (e *PublicError) Unwrap() error { return e.Kind }

func newPublicError(kind error, msg string) error {
	return &PublicError{Kind: kind, Message: msg}
}

// notFound maps repository.ErrNotFound to ErrNotFound with a resource name
// and wraps anything else for context.
func notFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newPublicError(ErrNotFound, what+" not found")
	}
	return fmt.Errorf("load %s: %w", what, err)
}
