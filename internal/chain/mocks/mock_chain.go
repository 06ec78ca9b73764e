package mocks

import (
	"context"

	"notaryapi/internal/chain"

	"github.com/stretchr/testify/mock"
)

type MockRPCClient struct {
	mock.Mock
}

func (m *MockRPCClient) GetBalance(ctx context.Context, address string) (int64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRPCClient) SubmitAndConfirm(ctx context.Context, rawTx []byte) (string, error) {
	args := m.Called(ctx, rawTx)
	return args.String(0), args.Error(1)
}

type MockMinter struct {
	mock.Mock
}

func (m *MockMinter) CreateNFT(ctx context.Context, name, metadataURI string) (*chain.MintResult, error) {
	args := m.Called(ctx, name, metadataURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chain.MintResult), args.Error(1)
}
