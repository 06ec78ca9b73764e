package mocks

import (
	"context"

	"notaryapi/internal/gateway"

	"github.com/stretchr/testify/mock"
)

type MockGatewayClient struct {
	mock.Mock
}

func (m *MockGatewayClient) CreateLink(ctx context.Context, p gateway.CreateLinkParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockGatewayClient) LinkStatus(ctx context.Context, orderCode int64) (string, error) {
	args := m.Called(ctx, orderCode)
	return args.String(0), args.Error(1)
}
