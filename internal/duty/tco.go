package duty

import (
	"context"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

// TCOExemptionChecker finds a current tariff concession order for a code.
type TCOExemptionChecker struct {
	repo port.TCORepository
}

// NewTCOExemptionChecker creates a TCOExemptionChecker.
func NewTCOExemptionChecker(repo port.TCORepository) *TCOExemptionChecker {
	return &TCOExemptionChecker{repo: repo}
}

// Resolve returns the most specific concession current on req.Date, or
// (nil, nil). The exemption is advisory: callers report it but do not apply
// it to the duty.
func (t *TCOExemptionChecker) Resolve(ctx context.Context, req Request) (*domain.ExemptionRecord, error) {
	m, found, err := MatchHierarchy(ctx, req.Code, func(ctx context.Context, code string) (*domain.TCOExemption, bool, error) {
		rec, found, err := absentOnNotFound(t.repo.FindCurrent(ctx, code, req.Date))
		if err != nil || !found {
			return nil, false, err
		}
		return rec, rec.ValidOn(req.Date), nil
	})
	if err != nil {
		return nil, storeError("tco exemption", err)
	}
	if !found {
		return nil, nil
	}
	return &domain.ExemptionRecord{
		ReferenceNumber: m.Value.ReferenceNumber,
		MatchedCode:     m.Code,
		Description:     m.Value.Description,
		EffectiveDate:   m.Value.EffectiveDate,
		ExpiryDate:      m.Value.ExpiryDate,
		IsCurrent:       m.Value.IsCurrent,
	}, nil
}
