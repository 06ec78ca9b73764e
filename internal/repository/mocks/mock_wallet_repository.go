package mocks

import (
	"context"

	"notaryapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) ListByUser(ctx context.Context, userID string) ([]model.WalletItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletItem), args.Error(1)
}

func (m *MockWalletRepository) FindByID(ctx context.Context, id string) (*model.WalletItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletItem), args.Error(1)
}

func (m *MockWalletRepository) FindByMint(ctx context.Context, userID, mintAddress string) (*model.WalletItem, error) {
	args := m.Called(ctx, userID, mintAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletItem), args.Error(1)
}

func (m *MockWalletRepository) FindFirstByMint(ctx context.Context, mintAddress string) (*model.WalletItem, error) {
	args := m.Called(ctx, mintAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletItem), args.Error(1)
}

func (m *MockWalletRepository) Insert(ctx context.Context, item *model.WalletItem) (*model.WalletItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletItem), args.Error(1)
}

func (m *MockWalletRepository) AddAmount(ctx context.Context, item *model.WalletItem, delta int64) error {
	args := m.Called(ctx, item, delta)
	return args.Error(0)
}

func (m *MockWalletRepository) SubtractAmount(ctx context.Context, userID, mintAddress string, delta int64) error {
	args := m.Called(ctx, userID, mintAddress, delta)
	return args.Error(0)
}

func (m *MockWalletRepository) AddAmountByID(ctx context.Context, id string, delta int64) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockWalletRepository) SubtractAmountByID(ctx context.Context, id string, delta int64) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}
