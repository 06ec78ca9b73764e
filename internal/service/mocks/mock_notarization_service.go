package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notaryapi/internal/model"
	"notaryapi/internal/repository"
	"notaryapi/internal/service"
)

type MockNotarizationService struct {
	mock.Mock
}

func (m *MockNotarizationService) CreateDocument(ctx context.Context, p service.CreateDocumentParams) (*model.Document, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockNotarizationService) ForwardStatus(ctx context.Context, p service.ForwardParams) (*model.Document, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockNotarizationService) ApproveSignatureByUser(ctx context.Context, documentID string, image service.UploadFile) (*model.RequestSignature, error) {
	args := m.Called(ctx, documentID, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestSignature), args.Error(1)
}

func (m *MockNotarizationService) ApproveSignatureByNotary(ctx context.Context, documentID string) (*model.RequestSignature, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestSignature), args.Error(1)
}

func (m *MockNotarizationService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockNotarizationService) Status(ctx context.Context, id string) (*service.DocumentStatusResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentStatusResult), args.Error(1)
}

func (m *MockNotarizationService) ListByStatus(ctx context.Context, status string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockNotarizationService) HistoryByUser(ctx context.Context, userID string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockNotarizationService) ListAll(ctx context.Context, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockNotarizationService) StatusMetrics(ctx context.Context) ([]repository.StatusCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.StatusCount), args.Error(1)
}

func (m *MockNotarizationService) AutoVerify(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockNotarizationService) MintForPayment(ctx context.Context, pay *model.Payment) error {
	args := m.Called(ctx, pay)
	return args.Error(0)
}
