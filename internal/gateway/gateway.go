// Package gateway wraps the external payment collaborator. The platform
// never trusts callback payloads on their own; LinkStatus is the source of
// truth for settlement decisions.
package gateway

import "context"

// CreateLinkParams carries everything the gateway needs for one checkout.
type CreateLinkParams struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
}

// Client is the payment gateway collaborator.
type Client interface {
	// CreateLink registers the order and returns the hosted checkout URL.
	CreateLink(ctx context.Context, p CreateLinkParams) (string, error)
	// LinkStatus returns the gateway-side status for an order code:
	// PENDING, PAID, or CANCELLED.
	LinkStatus(ctx context.Context, orderCode int64) (string, error)
}
