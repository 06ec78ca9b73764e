package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

const pgUniqueViolation = "23505"

// PaymentPostgres is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentPostgres struct {
	db *sql.DB
}

// NewPaymentPostgres creates a new PaymentPostgres repository.
func NewPaymentPostgres(db *sql.DB) *PaymentPostgres {
	return &PaymentPostgres{db: db}
}

var _ repository.PaymentRepository = (*PaymentPostgres)(nil)

const paymentColumns = `id, order_code, amount, description, status, user_id,
	COALESCE(document_id::text, ''), COALESCE(wallet_item_id::text, ''),
	checkout_url, return_url, cancel_url, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	if err := row.Scan(
		&p.ID,
		&p.OrderCode,
		&p.Amount,
		&p.Description,
		&p.Status,
		&p.UserID,
		&p.DocumentID,
		&p.WalletItemID,
		&p.CheckoutURL,
		&p.ReturnURL,
		&p.CancelURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a pending payment row. Unique violations on order_code are
// translated to ErrOrderCodeTaken so the service can redraw the code.
func (r *PaymentPostgres) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	const q = `
		INSERT INTO payments (id, order_code, amount, description, status, user_id,
			document_id, wallet_item_id, return_url, cancel_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, NULLIF($8, '')::uuid, $9, $10, $11, $11)
		RETURNING ` + paymentColumns
	row := r.db.QueryRowContext(ctx, q,
		p.ID,
		p.OrderCode,
		p.Amount,
		p.Description,
		p.Status,
		p.UserID,
		p.DocumentID,
		p.WalletItemID,
		p.ReturnURL,
		p.CancelURL,
		p.CreatedAt,
	)
	out, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, repository.ErrOrderCodeTaken
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a payment by its ID.
func (r *PaymentPostgres) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, q, id))
}

// FindByOrderCode fetches a payment by its gateway order code.
func (r *PaymentPostgres) FindByOrderCode(ctx context.Context, orderCode int64) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE order_code = $1`
	return scanPayment(r.db.QueryRowContext(ctx, q, orderCode))
}

// ListWithCheckoutURL returns payments eligible for reconciliation.
func (r *PaymentPostgres) ListWithCheckoutURL(ctx context.Context) ([]model.Payment, error) {
	const q = `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE checkout_url <> ''
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// SetCheckoutURL stores the checkout link returned by the gateway.
func (r *PaymentPostgres) SetCheckoutURL(ctx context.Context, id, url string) error {
	const q = `UPDATE payments SET checkout_url = $1, updated_at = now() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, q, url, id)
	return err
}

// SettleFromPending applies the pending -> toStatus transition conditionally.
// A payment that already settled leaves zero rows affected, which is how
// duplicate callbacks stay idempotent.
func (r *PaymentPostgres) SettleFromPending(ctx context.Context, orderCode int64, toStatus string) error {
	const q = `
		UPDATE payments
		SET status = $1, updated_at = now()
		WHERE order_code = $2 AND status = $3
	`
	res, err := r.db.ExecContext(ctx, q, toStatus, orderCode, model.PaymentPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE order_code = $1)`, orderCode,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
		return repository.ErrStatusChanged
	}
	return nil
}
