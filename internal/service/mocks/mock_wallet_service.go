package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notaryapi/internal/model"
	"notaryapi/internal/service"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, userID string) (*service.WalletResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WalletResult), args.Error(1)
}

func (m *MockWalletService) AddNFT(ctx context.Context, item *model.WalletItem) (*model.WalletItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WalletItem), args.Error(1)
}

func (m *MockWalletService) Transfer(ctx context.Context, p service.TransferParams) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockWalletService) DecreaseAmounts(ctx context.Context, userID string, itemIDs []string) error {
	args := m.Called(ctx, userID, itemIDs)
	return args.Error(0)
}

func (m *MockWalletService) Purchase(ctx context.Context, userID, itemID string, amount int64) (*model.Payment, error) {
	args := m.Called(ctx, userID, itemID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockWalletService) NFTMetadata(ctx context.Context, mintAddress string) (*service.NFTMetadataResult, error) {
	args := m.Called(ctx, mintAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NFTMetadataResult), args.Error(1)
}
