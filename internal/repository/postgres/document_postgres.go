package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, user_id, requester_name, requester_citizen_id, requester_phone,
	requester_email, notarization_field, notarization_service, amount, files,
	output_files, status, feedback, metadata_uri, mint_address, tx_signature,
	created_at, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	var files, outputFiles []byte
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Requester.FullName,
		&d.Requester.CitizenID,
		&d.Requester.PhoneNumber,
		&d.Requester.Email,
		&d.NotarizationField,
		&d.NotarizationService,
		&d.Amount,
		&files,
		&outputFiles,
		&d.Status,
		&d.Feedback,
		&d.MetadataURI,
		&d.MintAddress,
		&d.TxSignature,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(files, &d.Files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	if err := json.Unmarshal(outputFiles, &d.OutputFiles); err != nil {
		return nil, fmt.Errorf("decode output files: %w", err)
	}
	return &d, nil
}

func encodeStrings(ss []string) []byte {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return b
}

// Create inserts the document row and its initial status_tracking row in one
// transaction, so a document never exists without its first audit entry.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO documents (id, user_id, requester_name, requester_citizen_id,
			requester_phone, requester_email, notarization_field, notarization_service,
			amount, files, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING ` + documentColumns
	row := tx.QueryRowContext(ctx, q,
		doc.ID,
		doc.UserID,
		doc.Requester.FullName,
		doc.Requester.CitizenID,
		doc.Requester.PhoneNumber,
		doc.Requester.Email,
		doc.NotarizationField,
		doc.NotarizationService,
		doc.Amount,
		encodeStrings(doc.Files),
		doc.Status,
		doc.CreatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, err
	}

	const qTrack = `
		INSERT INTO status_tracking (document_id, status, actor_id, actor_role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, qTrack, out.ID, doc.Status, doc.UserID, model.RoleUser, doc.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ForwardStatus applies the compare-and-swap status transition and appends
// the audit row atomically. The WHERE clause on the current status serializes
// concurrent forwards: the loser sees zero rows affected.
func (r *DocumentPostgres) ForwardStatus(ctx context.Context, p repository.ForwardStatusParams) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	const q = `
		UPDATE documents
		SET status = $1,
		    feedback = CASE WHEN $2 <> '' THEN $2 ELSE feedback END,
		    output_files = CASE WHEN $3::jsonb <> '[]'::jsonb THEN $3::jsonb ELSE output_files END,
		    updated_at = $4
		WHERE id = $5 AND status = $6
	`
	res, err := tx.ExecContext(ctx, q,
		p.ToStatus, p.Feedback, encodeStrings(p.OutputFiles), now, p.DocumentID, p.FromStatus)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing document from a lost race.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, p.DocumentID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		return repository.ErrStatusChanged
	}

	const qTrack = `
		INSERT INTO status_tracking (document_id, status, actor_id, actor_role, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, qTrack,
		p.DocumentID, p.ToStatus, p.ActorID, p.ActorRole, p.Feedback, now); err != nil {
		return err
	}

	return tx.Commit()
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `
		SELECT COUNT(*) FROM documents
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR user_id = $2::uuid)
	`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, f.Status, f.UserID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR user_id = $2::uuid)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, qList, f.Status, f.UserID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// ListStaleByStatus returns documents stuck in a status since before cutoff.
func (r *DocumentPostgres) ListStaleByStatus(ctx context.Context, status string, cutoff time.Time) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, status, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// ListAcceptedUnfinalized returns accepted documents that never got a
// checkout link registered, so the sweep can retry the settlement setup.
func (r *DocumentPostgres) ListAcceptedUnfinalized(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE status = $1 AND mint_address = ''
		  AND NOT EXISTS (
			SELECT 1 FROM payments p
			WHERE p.document_id = documents.id AND p.checkout_url <> ''
		  )
		ORDER BY updated_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, model.StatusAccepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// TrackingByDocumentID returns the audit trail, oldest first.
func (r *DocumentPostgres) TrackingByDocumentID(ctx context.Context, documentID string) ([]model.StatusTracking, error) {
	const q = `
		SELECT id, document_id, status, actor_id, actor_role, feedback, created_at
		FROM status_tracking
		WHERE document_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.StatusTracking
	for rows.Next() {
		var t model.StatusTracking
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.Status, &t.ActorID, &t.ActorRole, &t.Feedback, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// SetMintResult records the mint outcome. Only the first write sticks; a
// document's mint links are immutable once set.
func (r *DocumentPostgres) SetMintResult(ctx context.Context, documentID, mintAddress, txSignature string) error {
	const q = `
		UPDATE documents
		SET mint_address = $1, tx_signature = $2, updated_at = now()
		WHERE id = $3 AND mint_address = ''
	`
	res, err := r.db.ExecContext(ctx, q, mintAddress, txSignature, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStatusChanged
	}
	return nil
}

// SetMetadataURI records the pinned metadata URI.
func (r *DocumentPostgres) SetMetadataURI(ctx context.Context, documentID, uri string) error {
	const q = `UPDATE documents SET metadata_uri = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, q, uri, documentID)
	return err
}

// CountByStatus aggregates documents per status.
func (r *DocumentPostgres) CountByStatus(ctx context.Context) ([]repository.StatusCount, error) {
	const q = `SELECT status, COUNT(*) FROM documents GROUP BY status ORDER BY status`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []repository.StatusCount
	for rows.Next() {
		var c repository.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
