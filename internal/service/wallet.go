package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"notaryapi/internal/apperr"
	"notaryapi/internal/email"
	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

// purchaseUnitPrice converts a purchased copy count into the gateway amount.
const purchaseUnitPrice = int64(2000)

// WalletResult is the service-level DTO for one user's holdings.
type WalletResult struct {
	Items []model.WalletItem `json:"data"`
	Total int                `json:"total"`
}

// NFTMetadataResult is the public lookup response for one minted token.
type NFTMetadataResult struct {
	MintAddress  string    `json:"mint_address"`
	Name         string    `json:"name"`
	MetadataURI  string    `json:"metadata_uri"`
	TxSignature  string    `json:"tx_signature"`
	ExplorerLink string    `json:"explorer_link"`
	SolscanLink  string    `json:"solscan_link"`
	IPFSLink     string    `json:"ipfs_link"`
	MintedAt     time.Time `json:"minted_at"`
}

// TransferParams carries one wallet-to-wallet transfer.
type TransferParams struct {
	FromUserID     string
	RecipientEmail string
	MintAddress    string
	Amount         int64
}

// WalletService defines the NFT ledger use cases.
type WalletService interface {
	// GetWallet returns every item the user holds. A user with no items has
	// an empty wallet, not a missing one.
	GetWallet(ctx context.Context, userID string) (*WalletResult, error)

	// AddNFT records an externally minted token in the user's wallet.
	AddNFT(ctx context.Context, item *model.WalletItem) (*model.WalletItem, error)

	// Transfer moves copies between two users' wallets, decrementing the
	// sender before crediting the recipient. The decrement is guarded so the
	// sender can never go negative.
	Transfer(ctx context.Context, p TransferParams) error

	// DecreaseAmounts burns one copy from each listed item.
	DecreaseAmounts(ctx context.Context, userID string, itemIDs []string) error

	// Purchase opens a payment for extra copies of an item the user already
	// holds and credits the copies provisionally.
	Purchase(ctx context.Context, userID, itemID string, amount int64) (*model.Payment, error)

	// NFTMetadata resolves a mint address to its metadata and viewer links.
	// Serves the public lookup, so no ownership check.
	NFTMetadata(ctx context.Context, mintAddress string) (*NFTMetadataResult, error)
}

type walletService struct {
	items    repository.WalletRepository
	users    repository.UserRepository
	payments PaymentService
	mail     email.Sender
}

// NewWalletService constructs a WalletService.
func NewWalletService(items repository.WalletRepository, users repository.UserRepository, payments PaymentService, mail email.Sender) WalletService {
	return &walletService{items: items, users: users, payments: payments, mail: mail}
}

func (s *walletService) GetWallet(ctx context.Context, userID string) (*WalletResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	}
	items, err := s.items.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletResult{Items: items, Total: len(items)}, nil
}

func (s *walletService) AddNFT(ctx context.Context, item *model.WalletItem) (*model.WalletItem, error) {
	switch {
	case item.UserID == "":
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	case item.MintAddress == "":
		return nil, fmt.Errorf("%w: mint address is required", apperr.ErrValidation)
	case item.Amount <= 0:
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	stored, err := s.items.Insert(ctx, item)
	if errors.Is(err, repository.ErrDuplicateMint) {
		return nil, fmt.Errorf("%w: mint address already in wallet", apperr.ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *walletService) Transfer(ctx context.Context, p TransferParams) error {
	if p.Amount <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", apperr.ErrValidation)
	}

	item, err := s.items.FindByMint(ctx, p.FromUserID, p.MintAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: nft not found in sender wallet", apperr.ErrNotFound)
	}
	if err != nil {
		return err
	}

	recipient, err := s.users.FindByEmail(ctx, p.RecipientEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: recipient %s", apperr.ErrNotFound, p.RecipientEmail)
	}
	if err != nil {
		return err
	}
	if recipient.ID == p.FromUserID {
		return fmt.Errorf("%w: cannot transfer to yourself", apperr.ErrValidation)
	}

	err = s.items.SubtractAmount(ctx, p.FromUserID, p.MintAddress, p.Amount)
	if errors.Is(err, repository.ErrStatusChanged) {
		return fmt.Errorf("%w: holds fewer than %d copies", apperr.ErrInsufficientBalance, p.Amount)
	}
	if err != nil {
		return err
	}

	credit := *item
	credit.ID = uuid.New().String()
	credit.UserID = recipient.ID
	credit.Amount = p.Amount
	if err := s.items.AddAmount(ctx, &credit, p.Amount); err != nil {
		// Undo the decrement so the copies are not lost between wallets.
		if compErr := s.items.AddAmountByID(ctx, item.ID, p.Amount); compErr != nil {
			log.Printf(`{"level":"error","msg":"transfer compensation failed","wallet_item_id":%q}`, item.ID)
		}
		return fmt.Errorf("%w: credit recipient wallet: %v", apperr.ErrInternal, err)
	}

	if mailErr := s.mail.Send(ctx, recipient.Email, email.TemplateNFTTransfer, map[string]string{
		"filename": item.Filename,
		"amount":   fmt.Sprintf("%d", p.Amount),
	}); mailErr != nil {
		log.Printf(`{"level":"warn","msg":"transfer email failed","recipient":%q}`, recipient.Email)
	}
	return nil
}

func (s *walletService) DecreaseAmounts(ctx context.Context, userID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return fmt.Errorf("%w: at least one item id is required", apperr.ErrValidation)
	}
	for _, id := range itemIDs {
		item, err := s.findOwned(ctx, userID, id)
		if err != nil {
			return err
		}
		err = s.items.SubtractAmountByID(ctx, item.ID, 1)
		if errors.Is(err, repository.ErrStatusChanged) {
			return fmt.Errorf("%w: item %s has no copies left", apperr.ErrValidation, id)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *walletService) Purchase(ctx context.Context, userID, itemID string, amount int64) (*model.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: purchase amount must be positive", apperr.ErrValidation)
	}
	item, err := s.findOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	buyer, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}

	pay, err := s.payments.CreateForWalletItem(ctx, item, buyer, amount*purchaseUnitPrice)
	if err != nil {
		return nil, err
	}

	if mailErr := s.mail.Send(ctx, buyer.Email, email.TemplateCheckoutLink, map[string]string{
		"filename":     item.Filename,
		"checkout_url": pay.CheckoutURL,
	}); mailErr != nil {
		log.Printf(`{"level":"warn","msg":"purchase email failed","user_id":%q}`, userID)
	}

	// Copies are credited up front; the settlement sweep catches payments
	// that never complete.
	if err := s.items.AddAmountByID(ctx, item.ID, amount); err != nil {
		return nil, fmt.Errorf("%w: credit purchased copies: %v", apperr.ErrInternal, err)
	}
	return pay, nil
}

func (s *walletService) NFTMetadata(ctx context.Context, mintAddress string) (*NFTMetadataResult, error) {
	if mintAddress == "" {
		return nil, fmt.Errorf("%w: mint address is required", apperr.ErrValidation)
	}
	item, err := s.items.FindFirstByMint(ctx, mintAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: nft %s", apperr.ErrNotFound, mintAddress)
	}
	if err != nil {
		return nil, err
	}
	return &NFTMetadataResult{
		MintAddress:  item.MintAddress,
		Name:         item.Filename,
		MetadataURI:  item.MetadataURI,
		TxSignature:  item.TxSignature,
		ExplorerLink: item.ExplorerLink,
		SolscanLink:  item.SolscanLink,
		IPFSLink:     item.IPFSLink,
		MintedAt:     item.MintedAt,
	}, nil
}

func (s *walletService) findOwned(ctx context.Context, userID, itemID string) (*model.WalletItem, error) {
	if itemID == "" {
		return nil, fmt.Errorf("%w: item id is required", apperr.ErrValidation)
	}
	item, err := s.items.FindByID(ctx, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: wallet item %s", apperr.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("%w: wallet item %s", apperr.ErrNotFound, itemID)
	}
	return item, nil
}
