package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"medrecon/internal/domain"
	"medrecon/internal/pipeline"
	"medrecon/internal/service"
)

// MockReconciliationService is a mock implementation of service.ReconciliationService.
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Reconcile(ctx context.Context, input service.ReconcileInput) (*service.ReconcileResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileResult), args.Error(1)
}

func (m *MockReconciliationService) Export(ctx context.Context, input service.ReconcileInput) (*pipeline.Outcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Outcome), args.Error(1)
}

func (m *MockReconciliationService) Get(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRun), args.Error(1)
}

func (m *MockReconciliationService) List(ctx context.Context, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ReconciliationRun), args.Int(1), args.Error(2)
}

func (m *MockReconciliationService) ReportURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockReconciliationService) Ready(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
