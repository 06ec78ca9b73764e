package repository

import (
	"context"

	"notaryapi/internal/model"
)

// SignatureRepository defines data access for the co-signature flags kept
// next to each document. The row is created on first approval.
type SignatureRepository interface {
	// FindByDocumentID returns the signature record for a document.
	FindByDocumentID(ctx context.Context, documentID string) (*model.RequestSignature, error)

	// ApproveByUser upserts the record and sets the user flag with a
	// timestamp, storing the uploaded signature image key.
	ApproveByUser(ctx context.Context, documentID, signatureImageKey string) (*model.RequestSignature, error)

	// ApproveByNotary upserts the record and sets the notary flag with a
	// timestamp.
	ApproveByNotary(ctx context.Context, documentID string) (*model.RequestSignature, error)
}

// UserRepository defines data access for accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}
