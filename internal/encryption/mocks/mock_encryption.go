package mocks

import (
	"context"

	"notaryapi/internal/encryption"

	"github.com/stretchr/testify/mock"
)

type MockEncryptionService struct {
	mock.Mock
}

func (m *MockEncryptionService) Encrypt(ctx context.Context, plaintext []byte, policy encryption.AccessPolicy) (*encryption.Sealed, error) {
	args := m.Called(ctx, plaintext, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*encryption.Sealed), args.Error(1)
}

func (m *MockEncryptionService) Decrypt(ctx context.Context, sealed *encryption.Sealed, policy encryption.AccessPolicy) ([]byte, error) {
	args := m.Called(ctx, sealed, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
