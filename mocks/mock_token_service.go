package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"medrecon/internal/service"
)

// MockTokenService is a mock implementation of service.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	args := m.Called(subject, ttl)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) Validate(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}
