package services

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired is returned when a mutation is attempted
	// without a caller identity. No repository call is made.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrNotFoundOrForbidden is returned when an owner-scoped mutation
	// matched no row. It intentionally does not say whether the recipe is
	// missing or belongs to someone else.
	ErrNotFoundOrForbidden = errors.New("recipe not found")

	// ErrInvalidInput is the parent of every ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned by SignIn for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAlreadyExists is returned by SignUp when the email or username is taken.
	ErrAlreadyExists = errors.New("account already exists")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
