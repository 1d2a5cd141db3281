package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console core
var (
	// Local validation errors, reported before any network call
	ErrValidation = errors.New("validation failed")

	// Authentication errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionInvalid  = errors.New("session invalid")

	// Booking errors
	ErrConflict            = errors.New("conflict")
	ErrDuplicateSubmission = errors.New("submission already in flight")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrReservationNotFound = errors.New("reservation not found")

	// Authorization errors
	ErrForbidden     = errors.New("forbidden")
	ErrViewForbidden = errors.New("view not available for this session")

	// Orchestration errors
	ErrInvalidState = errors.New("invalid state for operation")

	// Transport/connectivity errors
	ErrTransport = errors.New("connection error")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Validationf builds an ErrValidation with a message
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
