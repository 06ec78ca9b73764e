package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockPinningService struct {
	mock.Mock
}

func (m *MockPinningService) Pin(ctx context.Context, r io.Reader, name string) (string, error) {
	args := m.Called(ctx, r, name)
	return args.String(0), args.Error(1)
}

func (m *MockPinningService) GatewayLink(uri string) string {
	args := m.Called(uri)
	return args.String(0)
}
