package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every marketplace operation. Callers match with
// errors.Is; the API layer maps each kind to a distinct status code.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state")
	ErrTransactionFailure = errors.New("transaction failure")
)

var (
	ErrGigNotFound = fmt.Errorf("gig %w", ErrNotFound)
	ErrBidNotFound = fmt.Errorf("bid %w", ErrNotFound)
)

// ValidationError names the input field that failed the validation filter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match any field failure.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsDomainError reports whether err belongs to the marketplace taxonomy, as
// opposed to an infrastructure failure surfaced by the record store.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrTransactionFailure)
}
