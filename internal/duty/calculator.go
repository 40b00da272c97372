package duty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

// Sources are the read-only stores the calculator consults. GSTProvisions
// may be nil.
type Sources struct {
	Health        port.StoreHealth
	GeneralRates  port.GeneralRateRepository
	FTARates      port.FTARateRepository
	TradeRemedies port.TradeRemedyRepository
	TCOs          port.TCORepository
	GSTProvisions port.GSTProvisionRepository
}

// Options tune the calculator.
type Options struct {
	GSTRate      decimal.Decimal
	GSTThreshold decimal.Decimal
	// StoreErrorMode decides what a failed leaf lookup does to the
	// calculation. The store session check always propagates.
	StoreErrorMode domain.StoreErrorMode
	// ConcurrentLookups issues the independent lookups in parallel.
	ConcurrentLookups bool
	// Now supplies the default calculation date. Defaults to time.Now.
	Now func() time.Time
}

// Calculator orchestrates the resolvers into a single payable amount. It
// holds no mutable state and is safe for concurrent use.
type Calculator struct {
	health     port.StoreHealth
	general    *GeneralRateResolver
	fta        *FTARateSelector
	remedies   *TradeRemedyResolver
	tco        *TCOExemptionChecker
	gst        *GSTCalculator
	provisions *GSTProvisionLookup
	mode       domain.StoreErrorMode
	concurrent bool
	now        func() time.Time
	logger     *zap.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(src Sources, opts Options, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := opts.StoreErrorMode
	if mode != domain.StoreErrorPropagate {
		mode = domain.StoreErrorDegrade
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	health := src.Health
	if health == nil {
		health = alwaysHealthy{}
	}
	c := &Calculator{
		health:     health,
		general:    NewGeneralRateResolver(src.GeneralRates),
		fta:        NewFTARateSelector(src.FTARates),
		remedies:   NewTradeRemedyResolver(src.TradeRemedies),
		tco:        NewTCOExemptionChecker(src.TCOs),
		gst:        NewGSTCalculator(opts.GSTRate, opts.GSTThreshold),
		mode:       mode,
		concurrent: opts.ConcurrentLookups,
		now:        now,
		logger:     logger,
	}
	if src.GSTProvisions != nil {
		c.provisions = NewGSTProvisionLookup(src.GSTProvisions)
	}
	return c
}

// lookups collects the independent resolver outcomes of one calculation.
type lookups struct {
	general       *domain.DutyComponent
	generalErr    error
	fta           *FTASelection
	ftaErr        error
	remedies      *RemedyResolution
	remediesErr   error
	tco           *domain.ExemptionRecord
	tcoErr        error
	provisions    []domain.GSTProvision
	provisionsErr error
}

// Calculate validates in, resolves every duty source and returns the priced
// result with its trace. Validation failures return a *domain.ValidationError
// before any store access. An unusable store session is returned as
// ErrStoreUnavailable; failed leaf lookups follow the StoreErrorMode.
func (c *Calculator) Calculate(ctx context.Context, in domain.DutyCalculationInput) (*domain.DutyCalculationResult, error) {
	input, err := NormalizeInput(in, c.now())
	if err != nil {
		return nil, err
	}

	if err := c.health.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	req := RequestFromInput(input)
	l, err := c.runLookups(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &domain.DutyCalculationResult{Input: input}
	tr := &trace{}
	tr.addf("Input: HS code %s, country %s, customs value %s (%s), date %s",
		input.HSCode, input.CountryCode, input.CustomsValue.StringFixed(2), input.ValueBasis,
		input.CalculationDate.Format(domain.DateLayout))
	tr.addf("Hierarchy levels searched: %s", strings.Join(Candidates(input.HSCode), ", "))

	c.degrade(res, tr, "general_rate", l.generalErr)
	c.degrade(res, tr, "fta_rate", l.ftaErr)
	c.degrade(res, tr, "trade_remedy", l.remediesErr)
	c.degrade(res, tr, "tco_exemption", l.tcoErr)
	c.degrade(res, tr, "gst_provision", l.provisionsErr)

	// General and preferential base rates.
	if l.general != nil {
		res.SetComponent(*l.general)
		tr.addf("General rate: %s matched at %s -> %s", l.general.Description, l.general.MatchedCode, l.general.Amount.StringFixed(2))
	} else if l.generalErr == nil {
		tr.addf("General rate: no record at any hierarchy level")
	}

	var ftaComponent *domain.DutyComponent
	if l.fta != nil {
		ftaComponent = &l.fta.Component
		res.SetComponent(l.fta.Component)
		tr.addf("FTA rate: %s matched at %s -> %s (%d agreement(s) valid on date)",
			l.fta.Component.Description, l.fta.Component.MatchedCode, l.fta.Component.Amount.StringFixed(2), l.fta.Considered)
		if len(l.fta.TiedWith) > 0 {
			tr.addf("FTA rate: %s ties with %s at %s; %s kept by store order",
				l.fta.Agreement.AgreementCode, strings.Join(l.fta.TiedWith, ", "), percent(l.fta.Component.Rate), l.fta.Agreement.AgreementCode)
		}
	} else if l.ftaErr == nil {
		tr.addf("FTA rate: no agreement valid for %s on %s", input.CountryCode, input.CalculationDate.Format(domain.DateLayout))
	}

	best, baseDuty, reason := SelectBaseRate(l.general, ftaComponent)
	res.BestRateType = best
	tr.addf("Best rate: %s (%s)", best, reason)

	// Trade remedies are additive regardless of the base rate chosen.
	totalDuty := baseDuty
	adAmount, cvdAmount := decimal.Zero, decimal.Zero
	if l.remedies != nil && l.remedies.AntiDumping != nil {
		adAmount = l.remedies.AntiDumping.Amount
		res.SetComponent(*l.remedies.AntiDumping)
		tr.addf("Anti-dumping: %s -> %s", l.remedies.AntiDumping.Description, adAmount.StringFixed(2))
	}
	if l.remedies != nil && l.remedies.Countervailing != nil {
		cvdAmount = l.remedies.Countervailing.Amount
		res.SetComponent(*l.remedies.Countervailing)
		tr.addf("Countervailing: %s -> %s", l.remedies.Countervailing.Description, cvdAmount.StringFixed(2))
	}
	if l.remedies.Empty() && l.remediesErr == nil {
		tr.addf("Trade remedies: none in force for %s", input.CountryCode)
	}
	totalDuty = totalDuty.Add(adAmount).Add(cvdAmount)
	res.TotalDuty = totalDuty
	tr.addf("Total duty: %s = base %s + anti-dumping %s + countervailing %s",
		totalDuty.StringFixed(2), baseDuty.StringFixed(2), adAmount.StringFixed(2), cvdAmount.StringFixed(2))

	// TCO exemptions are reported, never applied.
	if l.tco != nil {
		res.TCOExemption = l.tco
		tr.addf("TCO: exemption %s current for %s (advisory, not applied to total duty)", l.tco.ReferenceNumber, l.tco.MatchedCode)
	} else if l.tcoErr == nil {
		tr.addf("TCO: no current exemption")
	}

	res.DutyInclusiveValue = input.CustomsValue.Add(totalDuty)
	tr.addf("Duty-inclusive value: %s", res.DutyInclusiveValue.StringFixed(2))

	gst := c.gst.Calculate(res.DutyInclusiveValue)
	res.SetComponent(gst)
	res.TotalGST = gst.Amount
	tr.addf("GST: %s (%s): %s", gst.Amount.StringFixed(2), gst.Basis, gst.Description)
	for i := range l.provisions {
		p := &l.provisions[i]
		tr.addf("GST provision on file: %s %s (%s); not applied", p.ExemptionType, p.ScheduleReference, p.Description)
	}

	res.TotalAmount = input.CustomsValue.Add(totalDuty).Add(res.TotalGST)
	tr.addf("Total amount: %s = customs value %s + duty %s + GST %s",
		res.TotalAmount.StringFixed(2), input.CustomsValue.StringFixed(2), totalDuty.StringFixed(2), res.TotalGST.StringFixed(2))

	res.CalculationSteps = tr.steps

	c.logger.Debug("duty calculated",
		zap.String("hs_code", input.HSCode),
		zap.String("country_code", input.CountryCode),
		zap.String("best_rate_type", string(res.BestRateType)),
		zap.String("total_duty", res.TotalDuty.StringFixed(2)),
		zap.String("total_amount", res.TotalAmount.StringFixed(2)),
		zap.Strings("degraded_sources", res.DegradedSources))

	return res, nil
}

// SelectBaseRate compares the general and preferential amounts. The lower
// amount wins and an FTA rate wins a tie. With neither on file the base duty
// is zero.
func SelectBaseRate(general, fta *domain.DutyComponent) (best domain.BestRateType, amount decimal.Decimal, reason string) {
	switch {
	case general == nil && fta == nil:
		return domain.BestRateGeneral, decimal.Zero, "no general or preferential rate on file, base duty is zero"
	case fta == nil:
		return domain.BestRateGeneral, general.Amount, "only a general rate is on file"
	case general == nil:
		return domain.BestRateFTA, fta.Amount, "only a preferential rate is on file"
	case fta.Amount.LessThanOrEqual(general.Amount):
		return domain.BestRateFTA, fta.Amount, fmt.Sprintf("FTA duty %s <= general duty %s",
			fta.Amount.StringFixed(2), general.Amount.StringFixed(2))
	default:
		return domain.BestRateGeneral, general.Amount, fmt.Sprintf("general duty %s < FTA duty %s",
			general.Amount.StringFixed(2), fta.Amount.StringFixed(2))
	}
}

func (c *Calculator) runLookups(ctx context.Context, req Request) (*lookups, error) {
	l := &lookups{}
	tasks := []func(context.Context) error{
		func(ctx context.Context) error {
			l.general, l.generalErr = c.general.Resolve(ctx, req)
			return c.escalate(l.generalErr)
		},
		func(ctx context.Context) error {
			l.fta, l.ftaErr = c.fta.Resolve(ctx, req)
			return c.escalate(l.ftaErr)
		},
		func(ctx context.Context) error {
			l.remedies, l.remediesErr = c.remedies.Resolve(ctx, req)
			return c.escalate(l.remediesErr)
		},
		func(ctx context.Context) error {
			l.tco, l.tcoErr = c.tco.Resolve(ctx, req)
			return c.escalate(l.tcoErr)
		},
	}
	if c.provisions != nil {
		tasks = append(tasks, func(ctx context.Context) error {
			l.provisions, l.provisionsErr = c.provisions.Resolve(ctx, req)
			return c.escalate(l.provisionsErr)
		})
	}

	if !c.concurrent {
		for _, task := range tasks {
			if err := task(ctx); err != nil {
				return nil, err
			}
		}
		return l, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return l, nil
}

// escalate returns the lookup errors that must abort the calculation:
// everything in propagate mode, and anything that is not a store failure
// (cancellation, deadlines) in degrade mode.
func (c *Calculator) escalate(err error) error {
	if err == nil {
		return nil
	}
	if c.mode == domain.StoreErrorPropagate || !errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return nil
}

func (c *Calculator) degrade(res *domain.DutyCalculationResult, tr *trace, source string, err error) {
	if err == nil {
		return
	}
	res.DegradedSources = append(res.DegradedSources, source)
	tr.addf("Warning: %s lookup failed, treated as not found: %v", source, err)
	c.logger.Warn("duty lookup degraded",
		zap.String("source", source),
		zap.String("hs_code", res.Input.HSCode),
		zap.Error(err))
}

type alwaysHealthy struct{}

func (alwaysHealthy) Ping(context.Context) error { return nil }

type trace struct {
	steps []string
}

func (t *trace) addf(format string, args ...any) {
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
}
