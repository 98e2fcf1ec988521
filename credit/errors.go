/*
errors.go - Centralized error types for the credit engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  The API layer maps these to HTTP statuses; the engine never swallows
  an error or persists a partially-applied operation.

ERROR CATEGORIES:
  1. NotFound      - Credit or client id has no record
  2. Validation    - Missing or invalid input (empty product list,
                     malformed schedule, non-positive amount)
  3. Range         - Payment index outside history bounds
  4. InvalidState  - Operation not allowed on a paid credit

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, credit.ErrCreditNotFound) { ... }

    var verr *credit.ValidationError
    if errors.As(err, &verr) { ... }

SEE ALSO:
  - engine.go: Producers of these errors
  - api/handlers.go: HTTP status mapping
*/
package credit

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCreditNotFound is returned when a credit id has no record.
	ErrCreditNotFound = errors.New("credit not found")

	// ErrClientNotFound is returned when a client id has no record.
	ErrClientNotFound = errors.New("client not found")

	// ErrUserNotFound is returned when a username has no account.
	ErrUserNotFound = errors.New("user not found")

	// ErrCreditPaid is returned when a mutation (top-up, product add)
	// targets a credit that already reached its terminal state.
	ErrCreditPaid = errors.New("credit already paid")

	// ErrInvalidInput is the root of all validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexOutOfRange is the root of payment index failures.
	ErrIndexOutOfRange = errors.New("payment index out of range")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports an invalid or missing field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// RangeError reports a payment index outside history bounds.
type RangeError struct {
	Index  int
	Length int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("payment index %d out of range [0, %d)", e.Index, e.Length)
}

func (e *RangeError) Unwrap() error { return ErrIndexOutOfRange }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCreditNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrIndexOutOfRange)
}

// IsInvalidState returns true if the operation is not allowed in the
// credit's current status.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrCreditPaid)
}
