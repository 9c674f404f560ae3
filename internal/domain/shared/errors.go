// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Upstream store errors
	ErrUpstreamStore      = errors.New("upstream store error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "certificate", "analytics"
	Op      string // Operation that failed, e.g., "Update", "Generate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Progress domain errors
var (
	ErrProgressNotFound  = NewDomainError("progress", "Find", ErrNotFound, "progress record not found")
	ErrInvalidPercentage = NewDomainError("progress", "Validate", ErrValueOutOfRange, "completion percentage must be between 0 and 100")
	ErrInvalidUserID     = NewDomainError("progress", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidCourseID   = NewDomainError("progress", "Validate", ErrInvalidID, "invalid course ID")
)

// Assessment domain errors
var (
	ErrSubmissionNotFound = NewDomainError("assessment", "Find", ErrNotFound, "assessment submission not found")
	ErrInvalidScore       = NewDomainError("assessment", "Validate", ErrValueOutOfRange, "score out of range")
	ErrNoSubmissions      = NewDomainError("assessment", "Evaluate", ErrNotFound, "no submissions available for evaluation")
)

// Certificate domain errors
var (
	ErrCertificateNotFound = NewDomainError("certificate", "Find", ErrNotFound, "certificate not found")
	ErrCertificateExists   = NewDomainError("certificate", "Generate", ErrAlreadyExists, "active certificate already exists")
	ErrCertificateRevoked  = NewDomainError("certificate", "CheckStatus", ErrInvalidState, "certificate is revoked")
)

// Analytics domain errors
var (
	ErrSnapshotNotFound = NewDomainError("analytics", "FindSnapshot", ErrNotFound, "aggregate snapshot not found")
	ErrSnapshotStale    = NewDomainError("analytics", "CheckSnapshot", ErrExpired, "aggregate snapshot is stale")
	ErrInvalidScope     = NewDomainError("analytics", "Validate", ErrInvalidInput, "invalid aggregate scope")
)

// Store errors
var (
	ErrStoreUnavailable = NewDomainError("store", "Query", ErrServiceUnavailable, "document store is unavailable")
	ErrStoreWriteFailed = NewDomainError("store", "Write", ErrUpstreamStore, "document store write failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUpstreamStore checks if the error originated in the persistence layer.
func IsUpstreamStore(err error) bool {
	return errors.Is(err, ErrUpstreamStore) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
