package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during draw operations.
var (
	// ErrEmptyPool indicates that a draw was requested with no candidates.
	ErrEmptyPool = errors.New("candidate pool is empty")

	// ErrConcurrentDraw indicates that a draw was requested while another
	// draw on the same controller was still spinning.
	ErrConcurrentDraw = errors.New("draw already in progress")

	// ErrPresentationTargetUnavailable indicates that the presentation
	// adapter could not locate or use its rendering target.
	ErrPresentationTargetUnavailable = errors.New("presentation target unavailable")

	// ErrStaleDraw indicates that a draw settled after its controller was
	// reset, closed, or given a new candidate list. The settlement was
	// discarded without side effects.
	ErrStaleDraw = errors.New("stale draw settlement discarded")

	// ErrControllerClosed indicates that the controller has been closed.
	ErrControllerClosed = errors.New("controller closed")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// DrawError represents an error that occurred during a single draw.
// It provides context about which draw and which step failed.
type DrawError struct {
	// DrawID identifies the draw that failed. It is empty when the draw
	// was rejected before an ID was assigned.
	DrawID string

	// Operation describes what step was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the draw to fail.
	Err error
}

// Error implements the error interface for DrawError.
func (e *DrawError) Error() string {
	if e.DrawID == "" {
		return fmt.Sprintf("draw error: operation=%s, err=%v", e.Operation, e.Err)
	}
	return fmt.Sprintf("draw error: operation=%s, draw=%s, err=%v", e.Operation, e.DrawID, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *DrawError) Unwrap() error { return e.Err }

// NewDrawError creates a new DrawError with the given details.
func NewDrawError(drawID, operation string, err error) *DrawError {
	return &DrawError{
		DrawID:    drawID,
		Operation: operation,
		Err:       err,
	}
}

// PresentationError wraps a failure raised by a presentation adapter,
// including recovered panics.
type PresentationError struct {
	// Presenter names the adapter that failed.
	Presenter string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for PresentationError.
func (e *PresentationError) Error() string {
	return fmt.Sprintf("presentation error: presenter=%s, err=%v", e.Presenter, e.Err)
}

// Unwrap returns the underlying error.
func (e *PresentationError) Unwrap() error { return e.Err }

// NewPresentationError creates a new PresentationError.
func NewPresentationError(presenter string, err error) *PresentationError {
	return &PresentationError{Presenter: presenter, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match validation failures against ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

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
