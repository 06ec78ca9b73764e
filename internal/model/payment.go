package model

import "time"

// Payment status values.
const (
	PaymentPending   = "pending"
	PaymentSuccess   = "success"
	PaymentCancelled = "cancelled"
)

// Gateway-side link statuses as reported by the payment collaborator.
const (
	LinkPending   = "PENDING"
	LinkPaid      = "PAID"
	LinkCancelled = "CANCELLED"
)

// Payment represents one settlement attempt against the external gateway.
// OrderCode is the gateway-facing numeric identifier; it is drawn at random
// within a bounded range and kept unique by constraint.
type Payment struct {
	ID           string    `json:"id"`
	OrderCode    int64     `json:"order_code"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	UserID       string    `json:"user_id"`
	DocumentID   string    `json:"document_id,omitempty"`
	WalletItemID string    `json:"wallet_item_id,omitempty"`
	CheckoutURL  string    `json:"checkout_url,omitempty"`
	ReturnURL    string    `json:"return_url,omitempty"`
	CancelURL    string    `json:"cancel_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
