package factoring

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
//
// Every mutating operation that fails with one of these has no effect
// whatsoever on the store or on funds: the triggering transition is rolled
// back in full.
var (
	// ErrNotFound means the index was never allocated. Distinct from a
	// soft-deleted record, which is in range and a normal state.
	ErrNotFound = errors.New("factoring: not found")

	// ErrInvalidInput means a malformed or out-of-policy argument: a zero
	// amount, the reserved zero due date, a wrong split count, a payment
	// that does not match the invoice total, or a stale beneficiary.
	ErrInvalidInput = errors.New("factoring: invalid input")

	// ErrNotAuthorized means the caller is not the required party for the
	// operation — the invoice's beneficiary, the offer's seller, or the
	// platform owner.
	ErrNotAuthorized = errors.New("factoring: not authorized")

	// ErrInvalidState means the operation is not permitted given the
	// record's current state: already settled, already deleted, listed for
	// sale, or an offer already consumed.
	ErrInvalidState = errors.New("factoring: invalid state")

	// Store errors
	ErrStoreClosed       = errors.New("factoring: store is closed")
	ErrTransactionFailed = errors.New("factoring: transaction failed")
	ErrMigrationFailed   = errors.New("factoring: migration failed")
)

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput returns true if the error is an input validation error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAuthorization returns true if the error is an authorization error.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

// IsInvalidState returns true if the error is a record state error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// invalidInput wraps ErrInvalidInput with detail.
func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notAuthorized wraps ErrNotAuthorized with detail.
func notAuthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotAuthorized, fmt.Sprintf(format, args...))
}

// invalidState wraps ErrInvalidState with detail.
func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
