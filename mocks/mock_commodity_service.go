package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dutycalc/internal/domain"
	"dutycalc/internal/service"
)

// MockCommodityService is a mock implementation of service.CommodityService.
type MockCommodityService struct {
	mock.Mock
}

func (m *MockCommodityService) Lookup(ctx context.Context, code string) (*service.CommodityDetail, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CommodityDetail), args.Error(1)
}

func (m *MockCommodityService) Search(ctx context.Context, query string, limit int) ([]domain.CommodityCode, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CommodityCode), args.Error(1)
}
