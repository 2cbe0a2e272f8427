// Package shared contains common domain types, errors, and value objects
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

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidID       = errors.New("invalid ID")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidWindow   = errors.New("invalid time window")

	// Store errors
	ErrStoreUnavailable = errors.New("event store unavailable")
	ErrTimeout          = errors.New("operation timeout")

	// State errors
	ErrAlreadyAwarded = errors.New("achievement already awarded")
	ErrNotImplemented = errors.New("not implemented")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "recommendation", "achievement"
	Op      string // Operation that failed, e.g., "GetStreak", "Detect"
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

// Answer event domain errors
var (
	ErrEventNotFound    = NewDomainError("answer", "Find", ErrNotFound, "answer event not found")
	ErrInvalidStudentID = NewDomainError("answer", "Validate", ErrInvalidID, "invalid student ID")
	ErrInvalidQuestion  = NewDomainError("answer", "Validate", ErrInvalidID, "invalid question ID")
	ErrInvalidSubject   = NewDomainError("answer", "Validate", ErrInvalidInput, "invalid subject")
	ErrInvalidTier      = NewDomainError("answer", "Validate", ErrValueOutOfRange, "invalid difficulty tier")
)

// Achievement domain errors
var (
	ErrAchievementExists    = NewDomainError("achievement", "Insert", ErrAlreadyAwarded, "achievement already in ledger")
	ErrUnknownAchievement   = NewDomainError("achievement", "Validate", ErrInvalidInput, "unknown achievement type")
	ErrLedgerUnavailable    = NewDomainError("achievement", "Insert", ErrStoreUnavailable, "achievement ledger unavailable")
	ErrCohortNotImplemented = NewDomainError("cohort", "Compare", ErrNotImplemented, "cohort comparison is not implemented")
	ErrCohortDisabled       = NewDomainError("cohort", "Compare", ErrNotFound, "cohort comparison is disabled")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidWindow)
}

// IsStoreUnavailable checks if the error means the event store could not be reached.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTimeout)
}

// IsAlreadyAwarded checks if the error is the expected duplicate-award outcome.
func IsAlreadyAwarded(err error) bool {
	return errors.Is(err, ErrAlreadyAwarded)
}
