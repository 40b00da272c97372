package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dutycalc/internal/domain"
)

// DutyCalculator computes a single landed-cost result.
type DutyCalculator interface {
	Calculate(ctx context.Context, in domain.DutyCalculationInput) (*domain.DutyCalculationResult, error)
}

// BatchConfig bounds batch calculations.
type BatchConfig struct {
	Concurrency int
	MaxItems    int
}

// BatchItemResult is the outcome of one batch entry. Exactly one of Result
// and Err is set.
type BatchItemResult struct {
	Index  int
	Result *domain.DutyCalculationResult
	Err    error
}

// CalculationService calculates duties for single requests and batches.
type CalculationService interface {
	Calculate(ctx context.Context, in domain.DutyCalculationInput) (*domain.DutyCalculationResult, error)
	CalculateBatch(ctx context.Context, items []domain.DutyCalculationInput) ([]BatchItemResult, error)
}

type calculationService struct {
	calc   DutyCalculator
	cfg    BatchConfig
	logger *zap.Logger
}

// NewCalculationService creates a new CalculationService implementation.
func NewCalculationService(calc DutyCalculator, cfg BatchConfig, logger *zap.Logger) CalculationService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &calculationService{calc: calc, cfg: cfg, logger: logger}
}

func (s *calculationService) Calculate(ctx context.Context, in domain.DutyCalculationInput) (*domain.DutyCalculationResult, error) {
	return s.calc.Calculate(ctx, in)
}

// CalculateBatch calculates every item with at most cfg.Concurrency
// calculations in flight. A failing item does not stop the others; results
// are returned in input order.
func (s *calculationService) CalculateBatch(ctx context.Context, items []domain.DutyCalculationInput) ([]BatchItemResult, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "must contain at least one calculation")
	}
	if s.cfg.MaxItems > 0 && len(items) > s.cfg.MaxItems {
		return nil, fmt.Errorf("%w: %d items, limit is %d", domain.ErrBatchTooLarge, len(items), s.cfg.MaxItems)
	}

	start := time.Now()
	results := make([]BatchItemResult, len(items))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for i := range items {
		g.Go(func() error {
			res, err := s.calc.Calculate(ctx, items[i])
			results[i] = BatchItemResult{Index: i, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	s.logger.Info("batch calculated",
		zap.Int("items", len(items)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}
