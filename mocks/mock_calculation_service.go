package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dutycalc/internal/domain"
	"dutycalc/internal/service"
)

// MockCalculationService is a mock implementation of service.CalculationService.
type MockCalculationService struct {
	mock.Mock
}

func (m *MockCalculationService) Calculate(ctx context.Context, in domain.DutyCalculationInput) (*domain.DutyCalculationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DutyCalculationResult), args.Error(1)
}

func (m *MockCalculationService) CalculateBatch(ctx context.Context, items []domain.DutyCalculationInput) ([]service.BatchItemResult, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.BatchItemResult), args.Error(1)
}

// MockDutyCalculator is a mock implementation of service.DutyCalculator.
type MockDutyCalculator struct {
	mock.Mock
}

func (m *MockDutyCalculator) Calculate(ctx context.Context, in domain.DutyCalculationInput) (*domain.DutyCalculationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DutyCalculationResult), args.Error(1)
}
