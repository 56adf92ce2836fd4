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

	// Validation errors. Every specific kind wraps ErrInvalidInput.
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidID       = fmt.Errorf("%w: invalid ID", ErrInvalidInput)
	ErrNegativeValue   = fmt.Errorf("%w: value cannot be negative", ErrInvalidInput)
	ErrValueOutOfRange = fmt.Errorf("%w: value out of range", ErrInvalidInput)
	ErrInvalidFormat   = fmt.Errorf("%w: invalid format", ErrInvalidInput)

	// Storage errors
	ErrStorageFailure = errors.New("storage failure")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "streak", "quiz", "badge", "postgres"
	Op      string // Operation that failed, e.g., "Submit", "Upsert"
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

// StorageError wraps an adapter failure so that callers can match
// ErrStorageFailure while the driver error stays reachable via errors.As.
func StorageError(adapter, op string, err error) error {
	if err == nil {
		return nil
	}
	return WrapError(adapter, op, ErrStorageFailure, "storage operation failed", err)
}

// Identity errors
var (
	ErrInvalidUserID  = NewDomainError("shared", "Validate", ErrInvalidID, "user ID cannot be empty")
	ErrInvalidItemID  = NewDomainError("shared", "Validate", ErrInvalidID, "content item ID cannot be empty")
	ErrInvalidDate    = NewDomainError("shared", "ParseDate", ErrInvalidFormat, "date must be formatted as YYYY-MM-DD")
	ErrNegativePoints = NewDomainError("shared", "Validate", ErrNegativeValue, "points cannot be negative")
)

// Activity ledger errors
var (
	ErrNegativeDelta  = NewDomainError("activity", "Record", ErrNegativeValue, "activity deltas must be non-negative")
	ErrRecordNotFound = NewDomainError("activity", "Find", ErrNotFound, "activity record not found")
)

// Streak errors
var (
	ErrStreakStateNotFound = NewDomainError("streak", "Find", ErrNotFound, "streak state not found")
)

// Quiz errors
var (
	ErrScoreOutOfRange    = NewDomainError("quiz", "Submit", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrNegativeTimeSpent  = NewDomainError("quiz", "Submit", ErrNegativeValue, "time spent cannot be negative")
	ErrQuizResultNotFound = NewDomainError("quiz", "Find", ErrNotFound, "quiz result not found")
)

// Badge errors
var (
	ErrInvalidBadge     = NewDomainError("badge", "Validate", ErrInvalidInput, "badge name is required")
	ErrInvalidThreshold = NewDomainError("badge", "Validate", ErrNegativeValue, "badge thresholds cannot be negative")
)

// Lock errors
var (
	ErrLockNotAcquired = NewDomainError("lock", "Acquire", ErrConcurrentModification, "user lock not acquired")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsStorage checks if the error came from the persistence layer.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
