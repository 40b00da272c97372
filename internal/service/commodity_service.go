package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dutycalc/internal/domain"
	"dutycalc/internal/duty"
	"dutycalc/internal/port"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// CommodityDetail is a commodity code with its place in the hierarchy.
type CommodityDetail struct {
	RequestedCode string                 `json:"requested_code"`
	Commodity     domain.CommodityCode   `json:"commodity"`
	Ancestors     []domain.CommodityCode `json:"ancestors"`
}

// CommodityService looks up and searches commodity codes.
type CommodityService interface {
	Lookup(ctx context.Context, code string) (*CommodityDetail, error)
	Search(ctx context.Context, query string, limit int) ([]domain.CommodityCode, error)
}

type commodityService struct {
	repo port.CommodityRepository
}

// NewCommodityService creates a new CommodityService implementation.
func NewCommodityService(repo port.CommodityRepository) CommodityService {
	return &commodityService{repo: repo}
}

// Lookup returns the most specific commodity on file for code and its
// ancestors, chapter first.
func (s *commodityService) Lookup(ctx context.Context, code string) (*CommodityDetail, error) {
	normalized, err := duty.NormalizeCode(code)
	if err != nil {
		return nil, err
	}

	m, found, err := duty.MatchHierarchy(ctx, normalized, s.getByCode)
	if err != nil {
		return nil, fmt.Errorf("commodity lookup: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if !found {
		return nil, domain.ErrCommodityNotFound
	}

	detail := &CommodityDetail{
		RequestedCode: normalized,
		Commodity:     *m.Value,
		Ancestors:     []domain.CommodityCode{},
	}
	candidates := duty.Candidates(m.Code)
	for i := len(candidates) - 1; i >= 1; i-- {
		parent, ok, err := s.getByCode(ctx, candidates[i])
		if err != nil {
			return nil, fmt.Errorf("commodity lookup: %w: %w", domain.ErrStoreUnavailable, err)
		}
		if ok {
			detail.Ancestors = append(detail.Ancestors, *parent)
		}
	}
	return detail, nil
}

func (s *commodityService) getByCode(ctx context.Context, code string) (*domain.CommodityCode, bool, error) {
	cc, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cc, true, nil
}

func (s *commodityService) Search(ctx context.Context, query string, limit int) ([]domain.CommodityCode, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, domain.NewValidationError("q", "must contain at least 2 characters")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	codes, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("commodity search: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return codes, nil
}
