package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medrecon/internal/pipeline"
)

// MockRunner is a mock implementation of service.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, src pipeline.Sources, threshold float64) (*pipeline.Outcome, error) {
	args := m.Called(ctx, src, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pipeline.Outcome), args.Error(1)
}
