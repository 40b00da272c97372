package duty_test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dutycalc/internal/domain"
	"dutycalc/internal/duty"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func timePtr(s string) *time.Time {
	t := day(s)
	return &t
}

// generalStore is an in-memory GeneralRateRepository that records the codes
// it was asked for.
type generalStore struct {
	rates map[string]domain.GeneralRate
	mu    sync.Mutex
	calls []string
}

func (s *generalStore) FindActive(_ context.Context, code string, date time.Time) (*domain.GeneralRate, error) {
	s.mu.Lock()
	s.calls = append(s.calls, code)
	s.mu.Unlock()
	r, ok := s.rates[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !r.ValidOn(date) {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

// ftaStore returns every rate for (code, country) without looking at dates,
// leaving date validity to the selector.
type ftaStore struct {
	rates []domain.FTARate
}

func (s *ftaStore) FindValid(_ context.Context, code, country string, _ time.Time) ([]domain.FTARate, error) {
	var out []domain.FTARate
	for _, r := range s.rates {
		if r.Code == code && r.CountryCode == country {
			out = append(out, r)
		}
	}
	return out, nil
}

type remedyStore struct {
	records []domain.TradeRemedy
}

func (s *remedyStore) FindActive(_ context.Context, code, country string, _ time.Time) ([]domain.TradeRemedy, error) {
	var out []domain.TradeRemedy
	for _, r := range s.records {
		if r.Code == code && r.CountryCode == country {
			out = append(out, r)
		}
	}
	return out, nil
}

type tcoStore struct {
	records map[string]domain.TCOExemption
}

func (s *tcoStore) FindCurrent(_ context.Context, code string, _ time.Time) (*domain.TCOExemption, error) {
	r, ok := s.records[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

type provisionStore struct {
	provisions []domain.GSTProvision
}

func (s *provisionStore) FindActive(_ context.Context, code string) ([]domain.GSTProvision, error) {
	var out []domain.GSTProvision
	for _, p := range s.provisions {
		switch {
		case code == "" && p.Code == nil:
			out = append(out, p)
		case code != "" && p.Code != nil && *p.Code == code:
			out = append(out, p)
		}
	}
	return out, nil
}

type fixture struct {
	general    *generalStore
	fta        *ftaStore
	remedies   *remedyStore
	tcos       *tcoStore
	provisions *provisionStore
}

func newFixture() *fixture {
	return &fixture{
		general:    &generalStore{rates: map[string]domain.GeneralRate{}},
		fta:        &ftaStore{},
		remedies:   &remedyStore{},
		tcos:       &tcoStore{records: map[string]domain.TCOExemption{}},
		provisions: &provisionStore{},
	}
}

func (f *fixture) calculator(concurrent bool) *duty.Calculator {
	return duty.NewCalculator(duty.Sources{
		GeneralRates:  f.general,
		FTARates:      f.fta,
		TradeRemedies: f.remedies,
		TCOs:          f.tcos,
		GSTProvisions: f.provisions,
	}, duty.Options{
		GSTRate:           duty.DefaultGSTRate,
		GSTThreshold:      duty.DefaultGSTThreshold,
		ConcurrentLookups: concurrent,
		Now:               func() time.Time { return day("2024-06-15") },
	}, zap.NewNop())
}

func (f *fixture) request(code string) duty.Request {
	return duty.Request{
		Code:         code,
		CountryCode:  "USA",
		Date:         day("2024-06-15"),
		CustomsValue: dec("1000"),
	}
}

// decimalNull parses s into a NullDecimal; an empty string is NULL.
func decimalNull(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(dec(s))
}
