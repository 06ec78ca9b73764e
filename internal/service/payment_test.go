package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"notaryapi/internal/apperr"
	"notaryapi/internal/config"
	"notaryapi/internal/gateway"
	gwMocks "notaryapi/internal/gateway/mocks"
	"notaryapi/internal/model"
	"notaryapi/internal/repository"
	repoMocks "notaryapi/internal/repository/mocks"
)

// stubMinter counts mint invocations.
type stubMinter struct {
	calls int
	err   error
	last  *model.Payment
}

func (s *stubMinter) MintForPayment(ctx context.Context, pay *model.Payment) error {
	s.calls++
	s.last = pay
	return s.err
}

func newPaymentService(t *testing.T) (*paymentService, *repoMocks.MockPaymentRepository, *gwMocks.MockGatewayClient, *stubMinter) {
	t.Helper()
	repo := new(repoMocks.MockPaymentRepository)
	gw := new(gwMocks.MockGatewayClient)
	minter := &stubMinter{}
	svc := NewPaymentService(repo, gw, config.GatewayConfig{
		ReturnURL: "https://client.example/payment/redirect",
		CancelURL: "https://client.example/payment/redirect",
	}, 0).(*paymentService)
	svc.BindMinter(minter)
	return svc, repo, gw, minter
}

func TestPaymentService_CreateForDocument(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "d1", UserID: "u1", Amount: 150000}

	t.Run("redraws order code on collision", func(t *testing.T) {
		svc, repo, gw, _ := newPaymentService(t)
		codes := []int64{111, 222}
		svc.drawCode = func() int64 { c := codes[0]; codes = codes[1:]; return c }

		repo.On("Create", ctx, mock.MatchedBy(func(p *model.Payment) bool { return p.OrderCode == 111 })).
			Return(nil, repository.ErrOrderCodeTaken).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(p *model.Payment) bool { return p.OrderCode == 222 })).
			Return(&model.Payment{ID: "pay-1", OrderCode: 222, Amount: 150000, Status: model.PaymentPending}, nil).Once()
		gw.On("CreateLink", ctx, mock.MatchedBy(func(p gateway.CreateLinkParams) bool { return p.OrderCode == 222 })).
			Return("https://pay.example/222", nil)
		repo.On("SetCheckoutURL", ctx, "pay-1", "https://pay.example/222").Return(nil)

		pay, err := svc.CreateForDocument(ctx, doc)
		assert.NoError(t, err)
		assert.Equal(t, int64(222), pay.OrderCode)
		assert.Equal(t, "https://pay.example/222", pay.CheckoutURL)
		repo.AssertExpectations(t)
	})

	t.Run("gateway failure keeps the pending row", func(t *testing.T) {
		svc, repo, gw, _ := newPaymentService(t)
		repo.On("Create", ctx, mock.Anything).
			Return(&model.Payment{ID: "pay-1", OrderCode: 333, Status: model.PaymentPending}, nil)
		gw.On("CreateLink", ctx, mock.Anything).
			Return("", errors.New("gateway down"))

		_, err := svc.CreateForDocument(ctx, doc)
		assert.Error(t, err)
		repo.AssertNotCalled(t, "SetCheckoutURL", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _, _, _ := newPaymentService(t)
		_, err := svc.CreateForDocument(ctx, &model.Document{ID: "d1", Amount: 0})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestPaymentService_HandleCallback(t *testing.T) {
	ctx := context.Background()
	pending := func() *model.Payment {
		return &model.Payment{ID: "pay-1", OrderCode: 42, DocumentID: "d1", Status: model.PaymentPending}
	}

	tests := []struct {
		name       string
		reported   string
		setupMocks func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient)
		wantErr    error
		wantStatus string
		wantMints  int
	}{
		{
			name:     "verified paid settles and mints",
			reported: model.LinkPaid,
			setupMocks: func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient) {
				repo.On("FindByOrderCode", ctx, int64(42)).Return(pending(), nil)
				gw.On("LinkStatus", ctx, int64(42)).Return(model.LinkPaid, nil)
				repo.On("SettleFromPending", ctx, int64(42), model.PaymentSuccess).Return(nil)
			},
			wantStatus: model.PaymentSuccess,
			wantMints:  1,
		},
		{
			name:     "verified cancelled settles without minting",
			reported: model.LinkCancelled,
			setupMocks: func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient) {
				repo.On("FindByOrderCode", ctx, int64(42)).Return(pending(), nil)
				gw.On("LinkStatus", ctx, int64(42)).Return(model.LinkCancelled, nil)
				repo.On("SettleFromPending", ctx, int64(42), model.PaymentCancelled).Return(nil)
			},
			wantStatus: model.PaymentCancelled,
		},
		{
			name:     "gateway still pending",
			reported: model.LinkPaid,
			setupMocks: func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient) {
				repo.On("FindByOrderCode", ctx, int64(42)).Return(pending(), nil)
				gw.On("LinkStatus", ctx, int64(42)).Return(model.LinkPending, nil)
			},
			wantErr: apperr.ErrValidation,
		},
		{
			name:     "duplicate callback",
			reported: model.LinkPaid,
			setupMocks: func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient) {
				settled := pending()
				settled.Status = model.PaymentSuccess
				repo.On("FindByOrderCode", ctx, int64(42)).Return(settled, nil)
			},
			wantErr: apperr.ErrConflict,
		},
		{
			name:     "lost settle race",
			reported: model.LinkPaid,
			setupMocks: func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient) {
				repo.On("FindByOrderCode", ctx, int64(42)).Return(pending(), nil)
				gw.On("LinkStatus", ctx, int64(42)).Return(model.LinkPaid, nil)
				repo.On("SettleFromPending", ctx, int64(42), model.PaymentSuccess).
					Return(repository.ErrStatusChanged)
			},
			wantErr: apperr.ErrConflict,
		},
		{
			name:     "unknown order code",
			reported: model.LinkPaid,
			setupMocks: func(repo *repoMocks.MockPaymentRepository, gw *gwMocks.MockGatewayClient) {
				repo.On("FindByOrderCode", ctx, int64(42)).Return(nil, sql.ErrNoRows)
			},
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, gw, minter := newPaymentService(t)
			tt.setupMocks(repo, gw)

			pay, err := svc.HandleCallback(ctx, 42, tt.reported)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus, pay.Status)
			}
			assert.Equal(t, tt.wantMints, minter.calls)
			repo.AssertExpectations(t)
		})
	}
}

func TestPaymentService_ReconcileAll(t *testing.T) {
	ctx := context.Background()
	svc, repo, gw, minter := newPaymentService(t)

	open := []model.Payment{
		{ID: "pay-1", OrderCode: 1, Status: model.PaymentSuccess, CheckoutURL: "u1"},
		{ID: "pay-2", OrderCode: 2, DocumentID: "d2", Status: model.PaymentPending, CheckoutURL: "u2"},
		{ID: "pay-3", OrderCode: 3, Status: model.PaymentPending, CheckoutURL: "u3"},
		{ID: "pay-4", OrderCode: 4, Status: model.PaymentPending, CheckoutURL: "u4"},
	}
	repo.On("ListWithCheckoutURL", ctx).Return(open, nil)
	gw.On("LinkStatus", ctx, int64(2)).Return(model.LinkPaid, nil)
	repo.On("SettleFromPending", ctx, int64(2), model.PaymentSuccess).Return(nil)
	gw.On("LinkStatus", ctx, int64(3)).Return("", errors.New("gateway down"))
	gw.On("LinkStatus", ctx, int64(4)).Return(model.LinkPending, nil)

	stats, err := svc.ReconcileAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, &ReconcileStats{Total: 4, Processed: 1, Skipped: 2, Failed: 1}, stats)
	assert.Equal(t, 1, minter.calls)
	assert.Equal(t, "pay-2", minter.last.ID)
}

func TestPaymentService_ReconcileAll_RetriesMintAfterSettlement(t *testing.T) {
	ctx := context.Background()

	// A document payment that settled as paid but never got its mint
	// recorded must be picked up again by the sweep.
	open := []model.Payment{
		{ID: "pay-1", OrderCode: 1, DocumentID: "d1", Status: model.PaymentSuccess, CheckoutURL: "u1"},
	}

	t.Run("re-invokes the mint hook", func(t *testing.T) {
		svc, repo, _, minter := newPaymentService(t)
		repo.On("ListWithCheckoutURL", ctx).Return(open, nil)

		stats, err := svc.ReconcileAll(ctx)
		assert.NoError(t, err)
		assert.Equal(t, &ReconcileStats{Total: 1, Skipped: 1}, stats)
		assert.Equal(t, 1, minter.calls)
		assert.Equal(t, "pay-1", minter.last.ID)
	})

	t.Run("counts a failed retry", func(t *testing.T) {
		svc, repo, _, minter := newPaymentService(t)
		minter.err = errors.New("rpc down")
		repo.On("ListWithCheckoutURL", ctx).Return(open, nil)

		stats, err := svc.ReconcileAll(ctx)
		assert.NoError(t, err)
		assert.Equal(t, &ReconcileStats{Total: 1, Failed: 1}, stats)
		assert.Equal(t, 1, minter.calls)
	})
}

func TestPaymentService_StatusByID(t *testing.T) {
	ctx := context.Background()

	t.Run("queries the gateway when a link exists", func(t *testing.T) {
		svc, repo, gw, _ := newPaymentService(t)
		repo.On("FindByID", ctx, "pay-1").
			Return(&model.Payment{ID: "pay-1", OrderCode: 42, Status: model.PaymentPending, CheckoutURL: "u"}, nil)
		gw.On("LinkStatus", ctx, int64(42)).Return(model.LinkPaid, nil)

		status, err := svc.StatusByID(ctx, "pay-1")
		assert.NoError(t, err)
		assert.Equal(t, model.LinkPaid, status)
	})

	t.Run("falls back to the stored status without a link", func(t *testing.T) {
		svc, repo, gw, _ := newPaymentService(t)
		repo.On("FindByID", ctx, "pay-1").
			Return(&model.Payment{ID: "pay-1", OrderCode: 42, Status: model.PaymentPending}, nil)

		status, err := svc.StatusByID(ctx, "pay-1")
		assert.NoError(t, err)
		assert.Equal(t, model.PaymentPending, status)
		gw.AssertNotCalled(t, "LinkStatus", mock.Anything, mock.Anything)
	})
}

// Keep the order-code bound aligned with what JSON consumers can hold.
func TestOrderCodeBound(t *testing.T) {
	assert.Equal(t, int64(900719925474099), maxOrderCode)
	svc := NewPaymentService(nil, nil, config.GatewayConfig{}, time.Millisecond).(*paymentService)
	for i := 0; i < 100; i++ {
		code := svc.drawCode()
		assert.GreaterOrEqual(t, code, int64(1))
		assert.LessOrEqual(t, code, maxOrderCode)
	}
}
