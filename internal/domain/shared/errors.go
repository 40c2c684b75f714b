// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
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

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	// State errors
	ErrCorruptedState = errors.New("corrupted persisted state")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "librus", "snapshot", "delivery"
	Op      string // Operation that failed, e.g., "Login", "Save"
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

// Librus portal errors
var (
	ErrLoginFailed        = NewDomainError("librus", "Login", ErrUnauthorized, "portal login failed")
	ErrPortalUnavailable  = NewDomainError("librus", "Fetch", ErrServiceUnavailable, "Librus portal is unavailable")
	ErrPortalTimeout      = NewDomainError("librus", "Fetch", ErrTimeout, "Librus portal request timeout")
	ErrSessionExpired     = NewDomainError("librus", "Fetch", ErrUnauthorized, "portal session expired")
	ErrUnexpectedResponse = NewDomainError("librus", "Parse", ErrInvalidFormat, "unexpected response from Librus portal")
)

// Snapshot persistence errors
var (
	ErrSnapshotNotFound  = NewDomainError("snapshot", "Load", ErrNotFound, "snapshot not found")
	ErrSnapshotCorrupted = NewDomainError("snapshot", "Load", ErrCorruptedState, "snapshot data is corrupted")
	ErrSnapshotSave      = NewDomainError("snapshot", "Save", ErrExternalService, "failed to persist snapshot")
)

// Timetable errors
var (
	ErrScheduleUnavailable = NewDomainError("timetable", "Fetch", ErrServiceUnavailable, "schedule page unavailable")
	ErrScheduleMalformed   = NewDomainError("timetable", "Parse", ErrInvalidFormat, "schedule page has unexpected shape")
)

// Delivery errors
var (
	ErrDeliveryFailed    = NewDomainError("delivery", "Send", ErrExternalService, "message delivery failed")
	ErrTelegramAPIFailed = NewDomainError("telegram", "Send", ErrExternalService, "Telegram API request failed")
	ErrTelegramRateLimit = NewDomainError("telegram", "Send", ErrRateLimited, "Telegram API rate limit exceeded")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsCorruptedState checks if persisted data failed to decode.
// Callers treat this as a first run rather than aborting.
func IsCorruptedState(err error) bool {
	return errors.Is(err, ErrCorruptedState)
}
