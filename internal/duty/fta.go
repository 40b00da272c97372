package duty

import (
	"context"
	"fmt"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

// FTASelection is the preferential rate chosen for a calculation.
type FTASelection struct {
	Component domain.DutyComponent
	// Agreement is the selected agreement record.
	Agreement domain.FTARate
	// Considered is the number of agreements valid on the date.
	Considered int
	// TiedWith lists other agreements offering the same lowest rate. Which
	// of them should win is an open business question; the first in store
	// order is kept.
	TiedWith []string
}

// FTARateSelector finds preferential rates and picks the best one.
type FTARateSelector struct {
	repo port.FTARateRepository
}

// NewFTARateSelector creates an FTARateSelector.
func NewFTARateSelector(repo port.FTARateRepository) *FTARateSelector {
	return &FTARateSelector{repo: repo}
}

// Resolve returns the agreement with the lowest applied rate valid for
// (code, country, date) at the most specific hierarchy level that has one.
// Broader levels are not consulted once a level has a valid agreement, even
// if they carry a lower rate. It returns (nil, nil) when no agreement is valid on the date.
func (s *FTARateSelector) Resolve(ctx context.Context, req Request) (*FTASelection, error) {
	m, found, err := MatchHierarchy(ctx, req.Code, func(ctx context.Context, code string) ([]domain.FTARate, bool, error) {
		rates, err := s.repo.FindValid(ctx, code, req.CountryCode, req.Date)
		if err != nil {
			return nil, false, err
		}
		valid := make([]domain.FTARate, 0, len(rates))
		for i := range rates {
			if rates[i].ValidOn(req.Date) {
				valid = append(valid, rates[i])
			}
		}
		return valid, len(valid) > 0, nil
	})
	if err != nil {
		return nil, storeError("fta rate", err)
	}
	if !found {
		return nil, nil
	}

	best, tied := SelectLowestRate(m.Value)
	rate := best.AppliedRate()
	return &FTASelection{
		Component: domain.DutyComponent{
			Kind:        domain.DutyKindFTA,
			Rate:        rate,
			Amount:      AdValorem(req.CustomsValue, rate),
			Description: fmt.Sprintf("%s preferential rate %s for %s", best.AgreementCode, percent(rate), best.CountryCode),
			Basis:       domain.BasisAdValorem,
			MatchedCode: m.Code,
			Reference:   best.AgreementCode,
		},
		Agreement:  best,
		Considered: len(m.Value),
		TiedWith:   tied,
	}, nil
}

// SelectLowestRate returns the rate with the lowest applied rate and the
// agreement codes of any others with the same rate. On a tie the earliest
// entry wins. rates must not be empty.
func SelectLowestRate(rates []domain.FTARate) (best domain.FTARate, tiedWith []string) {
	bestIdx := 0
	for i := 1; i < len(rates); i++ {
		if rates[i].AppliedRate().LessThan(rates[bestIdx].AppliedRate()) {
			bestIdx = i
		}
	}
	best = rates[bestIdx]
	for i := range rates {
		if i != bestIdx && rates[i].AppliedRate().Equal(best.AppliedRate()) {
			tiedWith = append(tiedWith, rates[i].AgreementCode)
		}
	}
	return best, tiedWith
}
