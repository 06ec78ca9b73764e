package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

// SignaturePostgres is a PostgreSQL implementation of repository.SignatureRepository.
type SignaturePostgres struct {
	db *sql.DB
}

// NewSignaturePostgres creates a new SignaturePostgres repository.
func NewSignaturePostgres(db *sql.DB) *SignaturePostgres {
	return &SignaturePostgres{db: db}
}

var _ repository.SignatureRepository = (*SignaturePostgres)(nil)

const signatureColumns = `id, document_id, signature_image_key, user_approved,
	user_approved_at, notary_approved, notary_approved_at, created_at, updated_at`

func scanSignature(row interface{ Scan(...any) error }) (*model.RequestSignature, error) {
	var s model.RequestSignature
	if err := row.Scan(
		&s.ID,
		&s.DocumentID,
		&s.SignatureImageKey,
		&s.UserApproved,
		&s.UserApprovedAt,
		&s.NotaryApproved,
		&s.NotaryApprovedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByDocumentID fetches the signature record for a document.
func (r *SignaturePostgres) FindByDocumentID(ctx context.Context, documentID string) (*model.RequestSignature, error) {
	const q = `SELECT ` + signatureColumns + ` FROM request_signatures WHERE document_id = $1`
	return scanSignature(r.db.QueryRowContext(ctx, q, documentID))
}

// ApproveByUser upserts the record and flips the user flag. Re-approval only
// refreshes the timestamp and stored image key.
func (r *SignaturePostgres) ApproveByUser(ctx context.Context, documentID, signatureImageKey string) (*model.RequestSignature, error) {
	const q = `
		INSERT INTO request_signatures (id, document_id, signature_image_key,
			user_approved, user_approved_at)
		VALUES ($1, $2, $3, TRUE, now())
		ON CONFLICT (document_id)
		DO UPDATE SET user_approved = TRUE, user_approved_at = now(),
			signature_image_key = $3, updated_at = now()
		RETURNING ` + signatureColumns
	return scanSignature(r.db.QueryRowContext(ctx, q, uuid.New().String(), documentID, signatureImageKey))
}

// ApproveByNotary upserts the record and flips the notary flag.
func (r *SignaturePostgres) ApproveByNotary(ctx context.Context, documentID string) (*model.RequestSignature, error) {
	const q = `
		INSERT INTO request_signatures (id, document_id, notary_approved, notary_approved_at)
		VALUES ($1, $2, TRUE, now())
		ON CONFLICT (document_id)
		DO UPDATE SET notary_approved = TRUE, notary_approved_at = now(), updated_at = now()
		RETURNING ` + signatureColumns
	return scanSignature(r.db.QueryRowContext(ctx, q, uuid.New().String(), documentID))
}
