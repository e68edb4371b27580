package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that failed a field constraint.  The
	// concrete error is a *ValidationError naming the field.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateUsername is returned when registering a username that is
	// already taken.  Nothing is written.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentials is returned for an unknown username and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotFound is returned when a catalog lookup matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned by mutations that need a logged-in
	// customer.  Read operations degrade to empty results instead.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrCustomerIDExhausted is returned once the four-digit customer
	// identifier space is used up.
	ErrCustomerIDExhausted = errors.New("customer identifier space exhausted")
)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationFailed(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
