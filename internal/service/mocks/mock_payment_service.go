package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notaryapi/internal/model"
	"notaryapi/internal/service"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) CreateForDocument(ctx context.Context, doc *model.Document) (*model.Payment, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) CreateForWalletItem(ctx context.Context, item *model.WalletItem, buyer *model.User, amount int64) (*model.Payment, error) {
	args := m.Called(ctx, item, buyer, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) Get(ctx context.Context, id string) (*model.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) StatusByID(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentService) HandleCallback(ctx context.Context, orderCode int64, reported string) (*model.Payment, error) {
	args := m.Called(ctx, orderCode, reported)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentService) ReconcileAll(ctx context.Context) (*service.ReconcileStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileStats), args.Error(1)
}

func (m *MockPaymentService) BindMinter(h service.MintHook) {
	m.Called(h)
}
