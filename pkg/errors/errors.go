// Package errors provides the typed errors returned by the dedup engine.
// Callers can branch on sentinels with errors.Is or unpack the typed
// structs with errors.As; nothing else escapes the API boundary except
// genuinely unexpected internal faults.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the dedup engine.
var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoHistory indicates a record has no merge history to undo.
	ErrNoHistory = errors.New("no merge history")

	// ErrCannotUndo indicates the most recent merge is not undoable.
	ErrCannotUndo = errors.New("cannot undo merge")

	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a record is not found.
type NotFoundError struct {
	Resource string
	ID       int64
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource string, id int64) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NoHistoryError indicates an undo was requested for a primary with no
// merge history.
type NoHistoryError struct {
	PrimaryID int64
}

// Error implements the error interface.
func (e *NoHistoryError) Error() string {
	return fmt.Sprintf("no merge history found for record %d", e.PrimaryID)
}

// Is implements errors.Is support.
func (e *NoHistoryError) Is(target error) bool {
	return target == ErrNoHistory
}

// CannotUndoError indicates the most recent merge disposed its duplicates
// in a way that cannot be reversed.
type CannotUndoError struct {
	PrimaryID int64
	Action    string
}

// Error implements the error interface.
func (e *CannotUndoError) Error() string {
	return fmt.Sprintf("cannot undo merge on record %d: duplicates were disposed with action %q", e.PrimaryID, e.Action)
}

// Is implements errors.Is support.
func (e *CannotUndoError) Is(target error) bool {
	return target == ErrCannotUndo
}

// StoreError represents a failure in a store collaborator.
type StoreError struct {
	Store     string // "record", "review", "taxonomy", "claim"
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s failed: %v", e.Store, e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStore wraps an error as a StoreError. Returns nil when err is nil.
func WrapStore(store, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Store: store, Operation: operation, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNoHistory checks if an error indicates missing merge history.
func IsNoHistory(err error) bool {
	return errors.Is(err, ErrNoHistory)
}

// IsCannotUndo checks if an error indicates a non-undoable merge.
func IsCannotUndo(err error) bool {
	return errors.Is(err, ErrCannotUndo)
}
