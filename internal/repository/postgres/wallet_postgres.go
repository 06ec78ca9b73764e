package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

// WalletPostgres is a PostgreSQL implementation of repository.WalletRepository.
type WalletPostgres struct {
	db *sql.DB
}

// NewWalletPostgres creates a new WalletPostgres repository.
func NewWalletPostgres(db *sql.DB) *WalletPostgres {
	return &WalletPostgres{db: db}
}

var _ repository.WalletRepository = (*WalletPostgres)(nil)

const walletColumns = `id, user_id, mint_address, metadata_address, tx_signature,
	filename, metadata_uri, amount, explorer_link, solscan_link, ipfs_link,
	minted_at, created_at, updated_at`

func scanWalletItem(row interface{ Scan(...any) error }) (*model.WalletItem, error) {
	var w model.WalletItem
	if err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.MintAddress,
		&w.MetadataAddress,
		&w.TxSignature,
		&w.Filename,
		&w.MetadataURI,
		&w.Amount,
		&w.ExplorerLink,
		&w.SolscanLink,
		&w.IPFSLink,
		&w.MintedAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByUser returns every item in the user's wallet, newest first.
func (r *WalletPostgres) ListByUser(ctx context.Context, userID string) ([]model.WalletItem, error) {
	const q = `
		SELECT ` + walletColumns + `
		FROM wallet_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.WalletItem, 0)
	for rows.Next() {
		w, err := scanWalletItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// FindByID fetches one wallet item by row ID.
func (r *WalletPostgres) FindByID(ctx context.Context, id string) (*model.WalletItem, error) {
	const q = `SELECT ` + walletColumns + ` FROM wallet_items WHERE id = $1`
	return scanWalletItem(r.db.QueryRowContext(ctx, q, id))
}

// FindByMint fetches the user's item for a mint address.
func (r *WalletPostgres) FindByMint(ctx context.Context, userID, mintAddress string) (*model.WalletItem, error) {
	const q = `SELECT ` + walletColumns + ` FROM wallet_items WHERE user_id = $1 AND mint_address = $2`
	return scanWalletItem(r.db.QueryRowContext(ctx, q, userID, mintAddress))
}

// FindFirstByMint fetches the oldest item holding a mint address.
func (r *WalletPostgres) FindFirstByMint(ctx context.Context, mintAddress string) (*model.WalletItem, error) {
	const q = `
		SELECT ` + walletColumns + `
		FROM wallet_items
		WHERE mint_address = $1
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanWalletItem(r.db.QueryRowContext(ctx, q, mintAddress))
}

// Insert adds a new wallet item. The (user_id, mint_address) unique
// constraint makes duplicate mint addresses fail with ErrDuplicateMint.
func (r *WalletPostgres) Insert(ctx context.Context, item *model.WalletItem) (*model.WalletItem, error) {
	const q = `
		INSERT INTO wallet_items (id, user_id, mint_address, metadata_address,
			tx_signature, filename, metadata_uri, amount, explorer_link,
			solscan_link, ipfs_link, minted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		RETURNING ` + walletColumns
	row := r.db.QueryRowContext(ctx, q,
		item.ID,
		item.UserID,
		item.MintAddress,
		item.MetadataAddress,
		item.TxSignature,
		item.Filename,
		item.MetadataURI,
		item.Amount,
		item.ExplorerLink,
		item.SolscanLink,
		item.IPFSLink,
		item.MintedAt,
		item.CreatedAt,
	)
	out, err := scanWalletItem(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, repository.ErrDuplicateMint
		}
		return nil, err
	}
	return out, nil
}

// AddAmount upserts the recipient side of a transfer: a new row when the user
// does not hold the mint yet, an increment otherwise.
func (r *WalletPostgres) AddAmount(ctx context.Context, item *model.WalletItem, delta int64) error {
	const q = `
		INSERT INTO wallet_items (id, user_id, mint_address, metadata_address,
			tx_signature, filename, metadata_uri, amount, explorer_link,
			solscan_link, ipfs_link, minted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		ON CONFLICT (user_id, mint_address)
		DO UPDATE SET amount = wallet_items.amount + $8, updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, q,
		item.ID,
		item.UserID,
		item.MintAddress,
		item.MetadataAddress,
		item.TxSignature,
		item.Filename,
		item.MetadataURI,
		delta,
		item.ExplorerLink,
		item.SolscanLink,
		item.IPFSLink,
		item.MintedAt,
	)
	return err
}

// SubtractAmount decrements conditionally; the amount guard in the WHERE
// clause keeps the balance non-negative under concurrency.
func (r *WalletPostgres) SubtractAmount(ctx context.Context, userID, mintAddress string, delta int64) error {
	const q = `
		UPDATE wallet_items
		SET amount = amount - $1, updated_at = now()
		WHERE user_id = $2 AND mint_address = $3 AND amount >= $1
	`
	res, err := r.db.ExecContext(ctx, q, delta, userID, mintAddress)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// AddAmountByID increments one row by ID.
func (r *WalletPostgres) AddAmountByID(ctx context.Context, id string, delta int64) error {
	const q = `UPDATE wallet_items SET amount = amount + $1, updated_at = now() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, delta, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// SubtractAmountByID decrements one row by ID with the same guard as
// SubtractAmount.
func (r *WalletPostgres) SubtractAmountByID(ctx context.Context, id string, delta int64) error {
	const q = `
		UPDATE wallet_items
		SET amount = amount - $1, updated_at = now()
		WHERE id = $2 AND amount >= $1
	`
	res, err := r.db.ExecContext(ctx, q, delta, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrStatusChanged
	}
	return nil
}
