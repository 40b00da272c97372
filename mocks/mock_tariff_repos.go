package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"dutycalc/internal/domain"
)

// MockCommodityRepo is a mock implementation of port.CommodityRepository.
type MockCommodityRepo struct {
	mock.Mock
}

func (m *MockCommodityRepo) GetByCode(ctx context.Context, code string) (*domain.CommodityCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommodityCode), args.Error(1)
}

func (m *MockCommodityRepo) Search(ctx context.Context, query string, limit int) ([]domain.CommodityCode, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CommodityCode), args.Error(1)
}

// MockGeneralRateRepo is a mock implementation of port.GeneralRateRepository.
type MockGeneralRateRepo struct {
	mock.Mock
}

func (m *MockGeneralRateRepo) FindActive(ctx context.Context, code string, date time.Time) (*domain.GeneralRate, error) {
	args := m.Called(ctx, code, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneralRate), args.Error(1)
}

// MockFTARateRepo is a mock implementation of port.FTARateRepository.
type MockFTARateRepo struct {
	mock.Mock
}

func (m *MockFTARateRepo) FindValid(ctx context.Context, code, countryCode string, date time.Time) ([]domain.FTARate, error) {
	args := m.Called(ctx, code, countryCode, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FTARate), args.Error(1)
}

// MockTradeRemedyRepo is a mock implementation of port.TradeRemedyRepository.
type MockTradeRemedyRepo struct {
	mock.Mock
}

func (m *MockTradeRemedyRepo) FindActive(ctx context.Context, code, countryCode string, date time.Time) ([]domain.TradeRemedy, error) {
	args := m.Called(ctx, code, countryCode, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TradeRemedy), args.Error(1)
}

// MockTCORepo is a mock implementation of port.TCORepository.
type MockTCORepo struct {
	mock.Mock
}

func (m *MockTCORepo) FindCurrent(ctx context.Context, code string, date time.Time) (*domain.TCOExemption, error) {
	args := m.Called(ctx, code, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TCOExemption), args.Error(1)
}

// MockGSTProvisionRepo is a mock implementation of port.GSTProvisionRepository.
type MockGSTProvisionRepo struct {
	mock.Mock
}

func (m *MockGSTProvisionRepo) FindActive(ctx context.Context, code string) ([]domain.GSTProvision, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GSTProvision), args.Error(1)
}

// MockStoreHealth is a mock implementation of port.StoreHealth.
type MockStoreHealth struct {
	mock.Mock
}

func (m *MockStoreHealth) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
