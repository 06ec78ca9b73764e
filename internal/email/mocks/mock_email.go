package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, template string, data map[string]string) error {
	args := m.Called(ctx, to, template, data)
	return args.Error(0)
}
