package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"medrecon/internal/domain"
)

// MockRunRepository is a mock implementation of port.RunRepository.
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *domain.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReconciliationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRun), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ReconciliationRun), args.Int(1), args.Error(2)
}

func (m *MockRunRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
