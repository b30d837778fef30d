package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during ranking operations.
var (
	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrKeyNotFound indicates that a requested Key does not exist in State.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidIterations indicates a non-positive iteration budget.
	ErrInvalidIterations = errors.New("iterations must be at least 1")

	// ErrInvalidThreshold indicates a convergence threshold that is not a
	// positive finite number.
	ErrInvalidThreshold = errors.New("convergence threshold must be a positive finite number")

	// ErrNilComparator indicates that no comparison function was supplied.
	ErrNilComparator = errors.New("comparison function is nil")

	// ErrMatrixMismatch indicates that a comparison matrix does not match the
	// item count it is used with.
	ErrMatrixMismatch = errors.New("comparison matrix size does not match item count")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the name of the state key involved in the failed operation.
	Key string

	// Operation describes what was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// MissingKey returns a StateError reporting that key is absent from State.
func MissingKey[T any](key Key[T], operation string) *StateError {
	return NewStateError(key.name, operation, ErrKeyNotFound)
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures and optionally wraps a
// sentinel cause so callers can use errors.Is.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string

	// Cause is an optional sentinel describing the failure class.
	Cause error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap returns the sentinel cause, if any.
func (e *ValidationError) Unwrap() error { return e.Cause }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}

// Invalid builds a single-message ValidationError wrapping cause.
func Invalid(entity string, cause error, format string, args ...any) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: []string{fmt.Sprintf(format, args...)},
		Cause:  cause,
	}
}
