package repository

import (
	"context"

	"notaryapi/internal/model"
)

// PaymentRepository defines data access for settlement attempts.
type PaymentRepository interface {
	// Create inserts a pending payment. A unique-constraint violation on
	// order_code is reported as ErrOrderCodeTaken so the caller can redraw.
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)

	// FindByID returns a payment by its ID.
	FindByID(ctx context.Context, id string) (*model.Payment, error)

	// FindByOrderCode returns a payment by its gateway order code.
	FindByOrderCode(ctx context.Context, orderCode int64) (*model.Payment, error)

	// ListWithCheckoutURL returns all payments holding a checkout URL, for the
	// reconciliation sweep.
	ListWithCheckoutURL(ctx context.Context) ([]model.Payment, error)

	// SetCheckoutURL stores the URL returned by the gateway.
	SetCheckoutURL(ctx context.Context, id, url string) error

	// SettleFromPending moves status from pending to the given value.
	// Returns ErrStatusChanged when the payment is no longer pending, which
	// makes duplicate callbacks harmless.
	SettleFromPending(ctx context.Context, orderCode int64, toStatus string) error
}
