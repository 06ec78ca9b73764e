package repository

import (
	"context"

	"notaryapi/internal/model"
)

// WalletRepository defines data access for per-user NFT holdings.
// A wallet is the set of wallet_items rows for one user; there is no separate
// wallet row, so "lazily created" simply means an empty result set.
type WalletRepository interface {
	// ListByUser returns every item in the user's wallet.
	ListByUser(ctx context.Context, userID string) ([]model.WalletItem, error)

	// FindByID returns one item by its row ID.
	FindByID(ctx context.Context, id string) (*model.WalletItem, error)

	// FindByMint returns the user's item for a mint address.
	FindByMint(ctx context.Context, userID, mintAddress string) (*model.WalletItem, error)

	// FindFirstByMint returns the oldest item holding a mint address,
	// regardless of owner. Transfers copy the mint metadata verbatim, so any
	// holder's row answers a public lookup.
	FindFirstByMint(ctx context.Context, mintAddress string) (*model.WalletItem, error)

	// Insert adds a new item. A duplicate (user, mint address) pair is
	// reported as ErrDuplicateMint.
	Insert(ctx context.Context, item *model.WalletItem) (*model.WalletItem, error)

	// AddAmount increments the user's amount for a mint address, inserting the
	// item if absent (upsert).
	AddAmount(ctx context.Context, item *model.WalletItem, delta int64) error

	// SubtractAmount decrements conditionally: the update applies only while
	// amount >= delta. Returns ErrStatusChanged when the guard fails.
	SubtractAmount(ctx context.Context, userID, mintAddress string, delta int64) error

	// AddAmountByID increments amount for one row by ID.
	AddAmountByID(ctx context.Context, id string, delta int64) error

	// SubtractAmountByID decrements one row conditionally, as SubtractAmount.
	SubtractAmountByID(ctx context.Context, id string, delta int64) error
}
