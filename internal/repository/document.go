package repository

import (
	"context"
	"time"

	"notaryapi/internal/model"
)

// ForwardStatusParams carries one conditional status transition. The update
// applies only while the document still holds FromStatus; the matching
// status_tracking row is written in the same transaction.
type ForwardStatusParams struct {
	DocumentID  string
	FromStatus  string
	ToStatus    string
	ActorID     string
	ActorRole   string
	Feedback    string
	OutputFiles []string
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Status string
	UserID string
}

// StatusCount is one row of the admin metrics aggregation.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DocumentRepository defines data access for notarization documents using SQL
// queries only. No business logic here — strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document together with its initial status_tracking
	// row, atomically.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ForwardStatus performs the compare-and-swap transition plus the audit
	// insert in one transaction. Returns sql.ErrNoRows when the document does
	// not exist and ErrStatusChanged when the CAS lost the race.
	ForwardStatus(ctx context.Context, p ForwardStatusParams) error

	// List returns a paginated list of documents for the given filter.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// ListStaleByStatus returns documents sitting in the given status whose
	// updated_at is older than the cutoff.
	ListStaleByStatus(ctx context.Context, status string, cutoff time.Time) ([]model.Document, error)

	// ListAcceptedUnfinalized returns accepted, unminted documents for which
	// no payment holds a checkout link. These are acceptances whose
	// settlement setup failed partway.
	ListAcceptedUnfinalized(ctx context.Context) ([]model.Document, error)

	// TrackingByDocumentID returns the append-only audit trail, oldest first.
	TrackingByDocumentID(ctx context.Context, documentID string) ([]model.StatusTracking, error)

	// SetMintResult records mint address and transaction signature once.
	SetMintResult(ctx context.Context, documentID, mintAddress, txSignature string) error

	// SetMetadataURI records the pinned metadata URI.
	SetMetadataURI(ctx context.Context, documentID, uri string) error

	// CountByStatus aggregates documents per status for admin metrics.
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}
