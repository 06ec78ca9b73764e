package mocks

import (
	"context"

	"notaryapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockSignatureRepository struct {
	mock.Mock
}

func (m *MockSignatureRepository) FindByDocumentID(ctx context.Context, documentID string) (*model.RequestSignature, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestSignature), args.Error(1)
}

func (m *MockSignatureRepository) ApproveByUser(ctx context.Context, documentID, signatureImageKey string) (*model.RequestSignature, error) {
	args := m.Called(ctx, documentID, signatureImageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestSignature), args.Error(1)
}

func (m *MockSignatureRepository) ApproveByNotary(ctx context.Context, documentID string) (*model.RequestSignature, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestSignature), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
