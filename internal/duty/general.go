package duty

import (
	"context"
	"fmt"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

// GeneralRateResolver finds the statutory duty rate for a code.
type GeneralRateResolver struct {
	repo port.GeneralRateRepository
}

// NewGeneralRateResolver creates a GeneralRateResolver.
func NewGeneralRateResolver(repo port.GeneralRateRepository) *GeneralRateResolver {
	return &GeneralRateResolver{repo: repo}
}

// Resolve returns the most specific general rate in force on req.Date,
// priced against the customs value. It returns (nil, nil) when no hierarchy
// level has a rate and an ErrStoreUnavailable error when the store fails.
func (r *GeneralRateResolver) Resolve(ctx context.Context, req Request) (*domain.DutyComponent, error) {
	m, found, err := MatchHierarchy(ctx, req.Code, func(ctx context.Context, code string) (*domain.GeneralRate, bool, error) {
		return absentOnNotFound(r.repo.FindActive(ctx, code, req.Date))
	})
	if err != nil {
		return nil, storeError("general rate", err)
	}
	if !found {
		return nil, nil
	}
	c := priceGeneralRate(m.Value, req)
	c.MatchedCode = m.Code
	return &c, nil
}

func priceGeneralRate(rate *domain.GeneralRate, req Request) domain.DutyComponent {
	label := rate.RateText
	if label == "" {
		label = percent(rate.Rate)
	}
	c := domain.DutyComponent{
		Kind: domain.DutyKindGeneral,
		Rate: rate.Rate,
	}
	if rate.UnitType == domain.RateUnitSpecific {
		c.Basis = domain.BasisSpecific
		amount, ok := specificAmount(rate.Rate, req.Quantity)
		c.Amount = amount
		c.Description = fmt.Sprintf("General rate %s per unit", label)
		if !ok {
			c.Description += " (quantity required, amount not computed)"
		}
		return c
	}
	c.Basis = domain.BasisAdValorem
	c.Amount = AdValorem(req.CustomsValue, rate.Rate)
	c.Description = fmt.Sprintf("General rate %s", label)
	return c
}
