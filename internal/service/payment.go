package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
	"notaryapi/internal/gateway"
	"notaryapi/internal/model"
	"notaryapi/internal/repository"
)

// Order codes live in [1, maxOrderCode]. The upper bound keeps codes inside
// what downstream JSON consumers can represent exactly.
const maxOrderCode = int64(9007199254740991) / 10

// orderCodeAttempts bounds the redraw loop on order-code collisions.
const orderCodeAttempts = 5

// ReconcileStats summarizes one reconciliation sweep over open payments.
type ReconcileStats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// MintHook is called after a document payment settles as paid. The
// notarization service implements it; it is bound after construction because
// the two services point at each other.
type MintHook interface {
	MintForPayment(ctx context.Context, pay *model.Payment) error
}

// PaymentService defines the settlement use cases.
type PaymentService interface {
	// Create opens a standalone pending payment for the given user.
	Create(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error)

	// CreateForDocument opens a pending payment for an accepted document and
	// registers a checkout link with the gateway.
	CreateForDocument(ctx context.Context, doc *model.Document) (*model.Payment, error)

	// CreateForWalletItem opens a pending payment for a wallet purchase.
	CreateForWalletItem(ctx context.Context, item *model.WalletItem, buyer *model.User, amount int64) (*model.Payment, error)

	// Get returns one payment by ID.
	Get(ctx context.Context, id string) (*model.Payment, error)

	// StatusByID asks the gateway for the live status of a payment's link.
	StatusByID(ctx context.Context, id string) (string, error)

	// HandleCallback applies a gateway callback. The reported status is never
	// trusted on its own; the gateway is queried again and its answer decides
	// the settlement. Duplicate callbacks are refused as conflicts.
	HandleCallback(ctx context.Context, orderCode int64, reported string) (*model.Payment, error)

	// ReconcileAll re-checks every payment holding a checkout link against
	// the gateway and settles the ones that moved. Settled document payments
	// whose mint never landed get the mint hook re-invoked.
	ReconcileAll(ctx context.Context) (*ReconcileStats, error)

	// BindMinter wires the post-settlement mint hook.
	BindMinter(m MintHook)
}

type paymentService struct {
	repo      repository.PaymentRepository
	gw        gateway.Client
	cfg       config.GatewayConfig
	itemDelay time.Duration
	minter    MintHook
	now       func() time.Time
	drawCode  func() int64
}

// NewPaymentService constructs a PaymentService. Call BindMinter before
// serving callbacks.
func NewPaymentService(repo repository.PaymentRepository, gw gateway.Client, cfg config.GatewayConfig, itemDelay time.Duration) PaymentService {
	return &paymentService{
		repo:      repo,
		gw:        gw,
		cfg:       cfg,
		itemDelay: itemDelay,
		now:       func() time.Time { return time.Now().UTC() },
		drawCode:  func() int64 { return rand.Int64N(maxOrderCode) + 1 },
	}
}

func (s *paymentService) BindMinter(m MintHook) { s.minter = m }

func (s *paymentService) Create(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", apperr.ErrValidation)
	}
	if description == "" {
		description = "Notarization platform payment"
	}
	return s.create(ctx, &model.Payment{
		Amount:      amount,
		Description: description,
		UserID:      userID,
	})
}

func (s *paymentService) CreateForDocument(ctx context.Context, doc *model.Document) (*model.Payment, error) {
	return s.create(ctx, &model.Payment{
		Amount:      doc.Amount,
		Description: "Notarization fee",
		UserID:      doc.UserID,
		DocumentID:  doc.ID,
	})
}

func (s *paymentService) CreateForWalletItem(ctx context.Context, item *model.WalletItem, buyer *model.User, amount int64) (*model.Payment, error) {
	return s.create(ctx, &model.Payment{
		Amount:       amount,
		Description:  "Document NFT purchase",
		UserID:       buyer.ID,
		WalletItemID: item.ID,
	})
}

// create persists a pending payment, redrawing the order code on collision,
// then registers the checkout link. A gateway failure leaves the pending row
// behind so reconciliation or a retry can pick it up.
func (s *paymentService) create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrValidation)
	}

	now := s.now()
	p.Status = model.PaymentPending
	p.ReturnURL = s.cfg.ReturnURL
	p.CancelURL = s.cfg.CancelURL
	p.CreatedAt = now
	p.UpdatedAt = now

	var stored *model.Payment
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		p.ID = uuid.New().String()
		p.OrderCode = s.drawCode()
		var err error
		stored, err = s.repo.Create(ctx, p)
		if errors.Is(err, repository.ErrOrderCodeTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save payment: %w", err)
		}
		break
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: could not allocate a unique order code", apperr.ErrInternal)
	}

	checkout, err := s.gw.CreateLink(ctx, gateway.CreateLinkParams{
		OrderCode:   stored.OrderCode,
		Amount:      stored.Amount,
		Description: stored.Description,
		ReturnURL:   stored.ReturnURL,
		CancelURL:   stored.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout link for order %d: %w", stored.OrderCode, err)
	}
	if err := s.repo.SetCheckoutURL(ctx, stored.ID, checkout); err != nil {
		return nil, fmt.Errorf("store checkout url: %w", err)
	}
	stored.CheckoutURL = checkout
	return stored, nil
}

func (s *paymentService) Get(ctx context.Context, id string) (*model.Payment, error) {
	return s.findByID(ctx, id)
}

func (s *paymentService) StatusByID(ctx context.Context, id string) (string, error) {
	pay, err := s.findByID(ctx, id)
	if err != nil {
		return "", err
	}
	if pay.CheckoutURL == "" {
		return pay.Status, nil
	}
	status, err := s.gw.LinkStatus(ctx, pay.OrderCode)
	if err != nil {
		return "", err
	}
	return status, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, orderCode int64, reported string) (*model.Payment, error) {
	pay, err := s.repo.FindByOrderCode(ctx, orderCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment with order code %d", apperr.ErrNotFound, orderCode)
	}
	if err != nil {
		return nil, err
	}
	if pay.Status != model.PaymentPending {
		return nil, fmt.Errorf("%w: payment already settled as %s", apperr.ErrConflict, pay.Status)
	}

	verified, err := s.gw.LinkStatus(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if verified != reported {
		log.Printf(`{"level":"warn","msg":"callback status mismatch","order_code":%d,"reported":%q,"verified":%q}`,
			orderCode, reported, verified)
	}

	switch verified {
	case model.LinkPaid:
		if err := s.settle(ctx, orderCode, model.PaymentSuccess); err != nil {
			return nil, err
		}
		pay.Status = model.PaymentSuccess
		if s.minter != nil {
			if err := s.minter.MintForPayment(ctx, pay); err != nil {
				return nil, err
			}
		}
	case model.LinkCancelled:
		if err := s.settle(ctx, orderCode, model.PaymentCancelled); err != nil {
			return nil, err
		}
		pay.Status = model.PaymentCancelled
	default:
		return nil, fmt.Errorf("%w: payment is not completed at the gateway", apperr.ErrValidation)
	}
	return pay, nil
}

func (s *paymentService) settle(ctx context.Context, orderCode int64, to string) error {
	err := s.repo.SettleFromPending(ctx, orderCode, to)
	if errors.Is(err, repository.ErrStatusChanged) {
		return fmt.Errorf("%w: payment already settled", apperr.ErrConflict)
	}
	return err
}

func (s *paymentService) ReconcileAll(ctx context.Context) (*ReconcileStats, error) {
	open, err := s.repo.ListWithCheckoutURL(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ReconcileStats{Total: len(open)}
	for i, pay := range open {
		if i > 0 && s.itemDelay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(s.itemDelay):
			}
		}
		if pay.Status != model.PaymentPending {
			// A document payment that settled as paid may still lack its
			// mint when the hook failed after settlement. Re-invoke it; the
			// hook no-ops once the mint address is recorded.
			if pay.Status == model.PaymentSuccess && pay.DocumentID != "" && s.minter != nil {
				if err := s.minter.MintForPayment(ctx, &pay); err != nil {
					log.Printf(`{"level":"warn","msg":"reconcile mint retry failed","order_code":%d,"error":%q}`,
						pay.OrderCode, err.Error())
					stats.Failed++
					continue
				}
			}
			stats.Skipped++
			continue
		}

		status, err := s.gw.LinkStatus(ctx, pay.OrderCode)
		if err != nil {
			stats.Failed++
			continue
		}
		switch status {
		case model.LinkPaid:
			if err := s.settleAndMint(ctx, pay); err != nil {
				log.Printf(`{"level":"warn","msg":"reconcile settle failed","order_code":%d,"error":%q}`,
					pay.OrderCode, err.Error())
				stats.Failed++
				continue
			}
			stats.Processed++
		case model.LinkCancelled:
			if err := s.settle(ctx, pay.OrderCode, model.PaymentCancelled); err != nil {
				stats.Failed++
				continue
			}
			stats.Processed++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

func (s *paymentService) settleAndMint(ctx context.Context, pay model.Payment) error {
	if err := s.settle(ctx, pay.OrderCode, model.PaymentSuccess); err != nil {
		return err
	}
	pay.Status = model.PaymentSuccess
	if s.minter != nil {
		return s.minter.MintForPayment(ctx, &pay)
	}
	return nil
}

func (s *paymentService) findByID(ctx context.Context, id string) (*model.Payment, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: payment id is required", apperr.ErrValidation)
	}
	pay, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return pay, nil
}
