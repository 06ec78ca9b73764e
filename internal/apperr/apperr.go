// Package apperr defines the sentinel error taxonomy shared across services
// and handlers. Callers match these values with errors.Is; services wrap them
// with fmt.Errorf("...: %w", ...) to add context.
package apperr

import "errors"

var (
	// Input rejected before any mutation took place.
	ErrValidation = errors.New("validation error")

	// Missing document, payment, wallet item, or user.
	ErrNotFound = errors.New("not found")

	// The (status, role, action) triple has no legal transition.
	ErrInvalidTransition = errors.New("invalid transition")

	// Lost compare-and-swap race, duplicate mint address, or a payment that
	// is no longer pending. Retryable by the caller.
	ErrConflict = errors.New("conflict")

	// Wallet transfer exceeding the held amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// A collaborator call (ledger, pinning, gateway, email) failed.
	ErrExternalService = errors.New("external service error")

	// Unexpected persistence or programming failure.
	ErrInternal = errors.New("internal error")
)
