package duty

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

// Config defaults for the GST calculator.
var (
	// DefaultGSTRate is the GST rate in percent.
	DefaultGSTRate = decimal.NewFromInt(10)
	// DefaultGSTThreshold is the duty-inclusive value below which no GST is
	// payable.
	DefaultGSTThreshold = decimal.RequireFromString("1000.00")
)

// GSTCalculator computes GST on a duty-inclusive value. It holds only
// constants and is safe for concurrent use.
type GSTCalculator struct {
	rate      decimal.Decimal
	threshold decimal.Decimal
}

// NewGSTCalculator creates a GSTCalculator with the given rate and
// threshold. Zero is a real setting for both: a zero threshold taxes every
// value and a zero rate charges nothing. Defaults belong to config.
func NewGSTCalculator(rate, threshold decimal.Decimal) *GSTCalculator {
	return &GSTCalculator{rate: rate, threshold: threshold}
}

// Rate returns the configured GST rate in percent.
func (g *GSTCalculator) Rate() decimal.Decimal { return g.rate }

// Threshold returns the configured GST threshold.
func (g *GSTCalculator) Threshold() decimal.Decimal { return g.threshold }

// Calculate returns the GST component for a duty-inclusive value.
func (g *GSTCalculator) Calculate(dutyInclusiveValue decimal.Decimal) domain.DutyComponent {
	if dutyInclusiveValue.LessThan(g.threshold) {
		return domain.DutyComponent{
			Kind:   domain.DutyKindGST,
			Rate:   decimal.Zero,
			Amount: decimal.Zero,
			Basis:  domain.BasisThreshold,
			Description: fmt.Sprintf("Duty-inclusive value %s is below the GST threshold of %s",
				dutyInclusiveValue.StringFixed(2), g.threshold.StringFixed(2)),
		}
	}
	return domain.DutyComponent{
		Kind:        domain.DutyKindGST,
		Rate:        g.rate,
		Amount:      AdValorem(dutyInclusiveValue, g.rate),
		Basis:       domain.BasisStandardRate,
		Description: fmt.Sprintf("GST at %s on duty-inclusive value %s", percent(g.rate), dutyInclusiveValue.StringFixed(2)),
	}
}

// GSTProvisionLookup reports GST provisions on file for a code. Provisions
// are informational and never change the GST computed by GSTCalculator.
type GSTProvisionLookup struct {
	repo port.GSTProvisionRepository
}

// NewGSTProvisionLookup creates a GSTProvisionLookup.
func NewGSTProvisionLookup(repo port.GSTProvisionRepository) *GSTProvisionLookup {
	return &GSTProvisionLookup{repo: repo}
}

// Resolve returns the provisions for the most specific level of req.Code
// that has any, followed by the provisions that apply to all goods.
func (l *GSTProvisionLookup) Resolve(ctx context.Context, req Request) ([]domain.GSTProvision, error) {
	m, _, err := MatchHierarchy(ctx, req.Code, func(ctx context.Context, code string) ([]domain.GSTProvision, bool, error) {
		ps, err := l.repo.FindActive(ctx, code)
		return ps, len(ps) > 0, err
	})
	if err != nil {
		return nil, storeError("gst provision", err)
	}
	general, err := l.repo.FindActive(ctx, "")
	if err != nil {
		return nil, storeError("gst provision", err)
	}
	return append(m.Value, general...), nil
}
