package duty

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

// RemedyResolution holds the trade-remedy duties that apply. Either field
// may be nil. Both are additive to the base duty.
type RemedyResolution struct {
	AntiDumping    *domain.DutyComponent
	Countervailing *domain.DutyComponent
	MatchedCode    string
}

// Empty reports whether no measure applies.
func (r *RemedyResolution) Empty() bool {
	return r == nil || (r.AntiDumping == nil && r.Countervailing == nil)
}

// TradeRemedyResolver finds anti-dumping and countervailing duties.
type TradeRemedyResolver struct {
	repo port.TradeRemedyRepository
}

// NewTradeRemedyResolver creates a TradeRemedyResolver.
func NewTradeRemedyResolver(repo port.TradeRemedyRepository) *TradeRemedyResolver {
	return &TradeRemedyResolver{repo: repo}
}

// Resolve returns the measures in force for (code, country, exporter, date).
// Each remedy type walks the hierarchy on its own, so a countervailing
// measure at a broader level still applies when anti-dumping is found at a
// narrower one. Within a type, an exporter-specific record at any level wins
// over country-general records; general records are used only when no level
// names the exporter. Records naming other exporters are ignored. It returns
// (nil, nil) when nothing applies.
func (r *TradeRemedyResolver) Resolve(ctx context.Context, req Request) (*RemedyResolution, error) {
	// Each level is fetched at most once however many walks read it.
	fetched := make(map[string][]domain.TradeRemedy)
	fetch := func(ctx context.Context, code string) ([]domain.TradeRemedy, error) {
		if recs, ok := fetched[code]; ok {
			return recs, nil
		}
		recs, err := r.repo.FindActive(ctx, code, req.CountryCode, req.Date)
		if err != nil {
			return nil, err
		}
		fetched[code] = recs
		return recs, nil
	}

	res := &RemedyResolution{}
	for _, kind := range []domain.RemedyType{domain.RemedyDumping, domain.RemedyCountervailing} {
		m, found, err := r.resolveType(ctx, req, kind, fetch)
		if err != nil {
			return nil, storeError("trade remedy", err)
		}
		if !found {
			continue
		}
		for i := range m.Value {
			m.Value[i].MatchedCode = m.Code
		}
		if kind == domain.RemedyCountervailing {
			res.Countervailing = mergeComponents(m.Value)
		} else {
			res.AntiDumping = mergeComponents(m.Value)
		}
		if len(m.Code) > len(res.MatchedCode) {
			res.MatchedCode = m.Code
		}
	}
	if res.Empty() {
		return nil, nil
	}
	return res, nil
}

// resolveType finds the level whose records of one remedy type apply: the
// most specific level naming the exporter, else the most specific level with
// a country-general record.
func (r *TradeRemedyResolver) resolveType(
	ctx context.Context,
	req Request,
	kind domain.RemedyType,
	fetch func(context.Context, string) ([]domain.TradeRemedy, error),
) (Match[[]domain.DutyComponent], bool, error) {
	walk := func(exporterOnly bool) (Match[[]domain.DutyComponent], bool, error) {
		return MatchHierarchy(ctx, req.Code, func(ctx context.Context, code string) ([]domain.DutyComponent, bool, error) {
			records, err := fetch(ctx, code)
			if err != nil {
				return nil, false, err
			}
			ofKind := make([]domain.TradeRemedy, 0, len(records))
			named := false
			for i := range records {
				if records[i].RemedyType != kind || !records[i].ValidOn(req.Date) {
					continue
				}
				ofKind = append(ofKind, records[i])
				if namesExporter(&records[i], req.ExporterName) {
					named = true
				}
			}
			if exporterOnly && !named {
				return nil, false, nil
			}
			selected := SelectRemedies(ofKind, req)
			return selected, len(selected) > 0, nil
		})
	}

	if strings.TrimSpace(req.ExporterName) != "" {
		m, found, err := walk(true)
		if err != nil || found {
			return m, found, err
		}
	}
	return walk(false)
}

func namesExporter(rec *domain.TradeRemedy, exporter string) bool {
	exporter = strings.TrimSpace(exporter)
	return exporter != "" && rec.ExporterName != nil &&
		strings.EqualFold(strings.TrimSpace(*rec.ExporterName), exporter)
}

// SelectRemedies applies the exporter override per case and prices the
// winning record of each case. Records not valid on req.Date are dropped.
func SelectRemedies(records []domain.TradeRemedy, req Request) []domain.DutyComponent {
	exporter := strings.TrimSpace(req.ExporterName)
	type choice struct {
		general  *domain.TradeRemedy
		specific *domain.TradeRemedy
	}
	byCase := make(map[string]*choice)
	var cases []string
	for i := range records {
		rec := &records[i]
		if !rec.ValidOn(req.Date) {
			continue
		}
		key := string(rec.RemedyType) + "|" + rec.CaseNumber
		ch, ok := byCase[key]
		if !ok {
			ch = &choice{}
			byCase[key] = ch
			cases = append(cases, key)
		}
		switch {
		case rec.ExporterName == nil || strings.TrimSpace(*rec.ExporterName) == "":
			if ch.general == nil {
				ch.general = rec
			}
		case namesExporter(rec, exporter):
			if ch.specific == nil {
				ch.specific = rec
			}
		}
	}
	sort.Strings(cases)

	out := make([]domain.DutyComponent, 0, len(cases))
	for _, key := range cases {
		ch := byCase[key]
		rec := ch.specific
		if rec == nil {
			rec = ch.general
		}
		if rec == nil {
			continue
		}
		out = append(out, priceRemedy(rec, req))
	}
	return out
}

func priceRemedy(rec *domain.TradeRemedy, req Request) domain.DutyComponent {
	kind := domain.DutyKindAntiDumping
	label := "Anti-dumping duty"
	if rec.RemedyType == domain.RemedyCountervailing {
		kind = domain.DutyKindCountervailing
		label = "Countervailing duty"
	}
	scope := "country-general"
	if rec.ExporterName != nil && strings.TrimSpace(*rec.ExporterName) != "" {
		scope = "exporter " + strings.TrimSpace(*rec.ExporterName)
	}

	c := domain.DutyComponent{Kind: kind, Reference: rec.CaseNumber}
	switch {
	case rec.Rate.Valid:
		c.Rate = rec.Rate.Decimal
		c.Amount = AdValorem(req.CustomsValue, rec.Rate.Decimal)
		c.Basis = domain.BasisAdValorem
		c.Description = fmt.Sprintf("%s %s (case %s, %s)", label, percent(rec.Rate.Decimal), rec.CaseNumber, scope)
	case rec.SpecificAmount.Valid:
		unit := "unit"
		if rec.SpecificUnit != nil && *rec.SpecificUnit != "" {
			unit = *rec.SpecificUnit
		}
		amount, ok := specificAmount(rec.SpecificAmount.Decimal, req.Quantity)
		c.Rate = rec.SpecificAmount.Decimal
		c.Amount = amount
		c.Basis = domain.BasisSpecific
		c.Description = fmt.Sprintf("%s %s per %s (case %s, %s)", label, rec.SpecificAmount.Decimal.String(), unit, rec.CaseNumber, scope)
		if !ok {
			c.Description += "; quantity required, amount not computed"
		}
	default:
		c.Basis = domain.BasisAdValorem
		c.Description = fmt.Sprintf("%s with no rate on file (case %s, %s)", label, rec.CaseNumber, scope)
	}
	return c
}

// mergeComponents folds the measures of one kind from separate cases into a
// single component. Amounts add up; rates add up only when every measure is
// ad valorem.
func mergeComponents(cs []domain.DutyComponent) *domain.DutyComponent {
	if len(cs) == 0 {
		return nil
	}
	if len(cs) == 1 {
		c := cs[0]
		return &c
	}
	merged := domain.DutyComponent{Kind: cs[0].Kind, Basis: cs[0].Basis, MatchedCode: cs[0].MatchedCode}
	rate := decimal.Zero
	descs := make([]string, 0, len(cs))
	refs := make([]string, 0, len(cs))
	for i := range cs {
		merged.Amount = merged.Amount.Add(cs[i].Amount)
		rate = rate.Add(cs[i].Rate)
		if cs[i].Basis != merged.Basis {
			merged.Basis = "mixed"
		}
		descs = append(descs, cs[i].Description)
		refs = append(refs, cs[i].Reference)
	}
	if merged.Basis == domain.BasisAdValorem {
		merged.Rate = rate
	}
	merged.Description = strings.Join(descs, "; ")
	merged.Reference = strings.Join(refs, ", ")
	return &merged
}
