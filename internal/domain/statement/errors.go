package statement

import "errors"

// Error taxonomy for the payment statement core. Every failure path maps to
// exactly one of these sentinels so callers can branch with errors.Is.
var (
	// ErrInvalidInput is returned for malformed numeric or enum values
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState is returned when an operation is not legal for the current status
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrNotFound is returned when a statement or ledger entry does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a double decision or a lost concurrent write
	ErrConflict = errors.New("conflict")

	// ErrDependencyFailure is returned when a collaborator (notifier, storage) fails
	ErrDependencyFailure = errors.New("dependency failure")

	// ErrInvalidTransition is returned when a status transition is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGuardFailed is returned when a transition guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)
