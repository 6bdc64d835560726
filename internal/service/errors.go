package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is also returned for resources owned by another user.
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthenticated")
	ErrRateLimited  = errors.New("too many requests")
	// ErrConflict is returned while another request holds the same
	// idempotency key.
	ErrConflict = errors.New("conflict")
)

// ValidationError carries per-field messages and renders as 422.
type ValidationError struct {
	Message string
	Errors  map[string][]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Validation failed"
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[field] = append(e.Errors[field], msg)
}

// Err returns nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if e.Message == "" {
		e.Message = "Validation failed"
	}
	return e
}

// Invalid is a shortcut for a single-field validation error.
func Invalid(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v.Err()
}

// UpstreamError wraps failures of OAuth providers, storage or external
// downloads. They are reported as 500 and never retried.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
