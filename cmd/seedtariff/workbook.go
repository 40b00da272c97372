package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"dutycalc/internal/domain"
	"dutycalc/internal/duty"
)

// Sheet names of the tariff workbook. Row 1 of every sheet is a header.
const (
	sheetCommodities = "Commodities"
	sheetGeneral     = "General Rates"
	sheetFTA         = "FTA Rates"
	sheetRemedies    = "Trade Remedies"
	sheetTCO         = "TCO"
)

var dateLayouts = []string{domain.DateLayout, "02/01/2006", "2/1/2006", "02-Jan-2006"}

type seedData struct {
	commodities []domain.CommodityCode
	general     []domain.GeneralRate
	fta         []domain.FTARate
	remedies    []domain.TradeRemedy
	tcos        []domain.TCOExemption
}

func (d *seedData) total() int {
	return len(d.commodities) + len(d.general) + len(d.fta) + len(d.remedies) + len(d.tcos)
}

// rowError reports a skipped workbook row.
type rowError struct {
	sheet string
	row   int
	msg   string
}

func (e rowError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.sheet, e.row, e.msg)
}

// parseWorkbook reads every known sheet. Malformed rows are skipped and
// logged; a missing sheet is logged and yields no rows.
func parseWorkbook(f *excelize.File, log *zap.Logger) (*seedData, error) {
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	data := &seedData{}
	parsers := []struct {
		sheet string
		parse func(rowNum int, row []string) error
	}{
		{sheetCommodities, func(n int, row []string) error {
			c, err := parseCommodityRow(n, row)
			if err == nil {
				data.commodities = append(data.commodities, c)
			}
			return err
		}},
		{sheetGeneral, func(n int, row []string) error {
			r, err := parseGeneralRow(n, row)
			if err == nil {
				data.general = append(data.general, r)
			}
			return err
		}},
		{sheetFTA, func(n int, row []string) error {
			r, err := parseFTARow(n, row)
			if err == nil {
				data.fta = append(data.fta, r)
			}
			return err
		}},
		{sheetRemedies, func(n int, row []string) error {
			r, err := parseRemedyRow(n, row)
			if err == nil {
				data.remedies = append(data.remedies, r)
			}
			return err
		}},
		{sheetTCO, func(n int, row []string) error {
			r, err := parseTCORow(n, row)
			if err == nil {
				data.tcos = append(data.tcos, r)
			}
			return err
		}},
	}

	for _, p := range parsers {
		if !present[p.sheet] {
			log.Warn("sheet not found, skipping", zap.String("sheet", p.sheet))
			continue
		}
		rows, err := f.GetRows(p.sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", p.sheet, err)
		}
		skipped := 0
		for i := 1; i < len(rows); i++ {
			if blankRow(rows[i]) {
				continue
			}
			if err := p.parse(i+1, rows[i]); err != nil {
				skipped++
				log.Warn("skipping row", zap.Error(err))
			}
		}
		log.Info("sheet parsed",
			zap.String("sheet", p.sheet),
			zap.Int("rows", len(rows)-1),
			zap.Int("skipped", skipped))
	}
	return data, nil
}

func parseCommodityRow(n int, row []string) (domain.CommodityCode, error) {
	code, err := duty.NormalizeCode(cellVal(row, 0))
	if err != nil {
		return domain.CommodityCode{}, rowError{sheetCommodities, n, err.Error()}
	}
	if len(code)%2 != 0 {
		return domain.CommodityCode{}, rowError{sheetCommodities, n, fmt.Sprintf("code %s has an odd number of digits", code)}
	}
	return domain.CommodityCode{
		Code:        code,
		Description: strings.TrimSpace(cellVal(row, 1)),
		Level:       len(code),
	}, nil
}

// Columns: A code, B rate text, C effective from, D effective to.
func parseGeneralRow(n int, row []string) (domain.GeneralRate, error) {
	code, err := duty.NormalizeCode(cellVal(row, 0))
	if err != nil {
		return domain.GeneralRate{}, rowError{sheetGeneral, n, err.Error()}
	}
	text := strings.TrimSpace(cellVal(row, 1))
	rate, unit, err := parseRateText(text)
	if err != nil {
		return domain.GeneralRate{}, rowError{sheetGeneral, n, err.Error()}
	}
	from, err := optionalDate(cellVal(row, 2))
	if err != nil {
		return domain.GeneralRate{}, rowError{sheetGeneral, n, err.Error()}
	}
	to, err := optionalDate(cellVal(row, 3))
	if err != nil {
		return domain.GeneralRate{}, rowError{sheetGeneral, n, err.Error()}
	}
	return domain.GeneralRate{
		Code:          code,
		Rate:          rate,
		UnitType:      unit,
		RateText:      text,
		EffectiveFrom: from,
		EffectiveTo:   to,
	}, nil
}

// Columns: A code, B agreement, C country, D preferential rate, E effective
// rate, F staging category, G effective date, H elimination date, I active.
func parseFTARow(n int, row []string) (domain.FTARate, error) {
	fail := func(msg string) (domain.FTARate, error) {
		return domain.FTARate{}, rowError{sheetFTA, n, msg}
	}
	code, err := duty.NormalizeCode(cellVal(row, 0))
	if err != nil {
		return fail(err.Error())
	}
	agreement := strings.ToUpper(strings.TrimSpace(cellVal(row, 1)))
	if agreement == "" {
		return fail("agreement is required")
	}
	country, err := duty.NormalizeCountry(cellVal(row, 2))
	if err != nil {
		return fail(err.Error())
	}
	pref, unit, err := parseRateText(cellVal(row, 3))
	if err != nil || unit != domain.RateUnitAdValorem {
		return fail("preferential rate must be a percentage")
	}
	var effective decimal.NullDecimal
	if s := strings.TrimSpace(cellVal(row, 4)); s != "" {
		r, u, err := parseRateText(s)
		if err != nil || u != domain.RateUnitAdValorem {
			return fail("effective rate must be a percentage")
		}
		effective = decimal.NewNullDecimal(r)
	}
	from, err := requiredDate(cellVal(row, 6))
	if err != nil {
		return fail(err.Error())
	}
	elimination, err := optionalDate(cellVal(row, 7))
	if err != nil {
		return fail(err.Error())
	}
	return domain.FTARate{
		Code:             code,
		AgreementCode:    agreement,
		CountryCode:      country,
		PreferentialRate: pref,
		EffectiveRate:    effective,
		StagingCategory:  strings.TrimSpace(cellVal(row, 5)),
		EffectiveDate:    from,
		EliminationDate:  elimination,
		IsActive:         parseActive(cellVal(row, 8)),
	}, nil
}

// Columns: A code, B country, C case number, D type, E rate, F specific
// amount, G specific unit, H exporter, I effective date, J expiry date.
func parseRemedyRow(n int, row []string) (domain.TradeRemedy, error) {
	fail := func(msg string) (domain.TradeRemedy, error) {
		return domain.TradeRemedy{}, rowError{sheetRemedies, n, msg}
	}
	code, err := duty.NormalizeCode(cellVal(row, 0))
	if err != nil {
		return fail(err.Error())
	}
	country, err := duty.NormalizeCountry(cellVal(row, 1))
	if err != nil {
		return fail(err.Error())
	}
	caseNo := strings.TrimSpace(cellVal(row, 2))
	if caseNo == "" {
		return fail("case number is required")
	}
	kind, ok := parseRemedyType(cellVal(row, 3))
	if !ok {
		return fail(fmt.Sprintf("unknown remedy type %q", cellVal(row, 3)))
	}

	rec := domain.TradeRemedy{
		Code:        code,
		CountryCode: country,
		CaseNumber:  caseNo,
		RemedyType:  kind,
		IsActive:    true,
	}
	if s := strings.TrimSpace(cellVal(row, 4)); s != "" {
		r, u, err := parseRateText(s)
		if err != nil || u != domain.RateUnitAdValorem {
			return fail("rate must be a percentage")
		}
		rec.Rate = decimal.NewNullDecimal(r)
	}
	if s := strings.TrimSpace(cellVal(row, 5)); s != "" {
		amt, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
		if err != nil {
			return fail(fmt.Sprintf("invalid specific amount %q", s))
		}
		rec.SpecificAmount = decimal.NewNullDecimal(amt)
		if unit := strings.TrimSpace(cellVal(row, 6)); unit != "" {
			rec.SpecificUnit = &unit
		}
	}
	if !rec.Rate.Valid && !rec.SpecificAmount.Valid {
		return fail("either a rate or a specific amount is required")
	}
	if exporter := strings.TrimSpace(cellVal(row, 7)); exporter != "" {
		rec.ExporterName = &exporter
	}
	if rec.EffectiveDate, err = requiredDate(cellVal(row, 8)); err != nil {
		return fail(err.Error())
	}
	if rec.ExpiryDate, err = optionalDate(cellVal(row, 9)); err != nil {
		return fail(err.Error())
	}
	return rec, nil
}

// Columns: A reference number, B code, C description, D effective date,
// E expiry date.
func parseTCORow(n int, row []string) (domain.TCOExemption, error) {
	fail := func(msg string) (domain.TCOExemption, error) {
		return domain.TCOExemption{}, rowError{sheetTCO, n, msg}
	}
	ref := strings.TrimSpace(cellVal(row, 0))
	if ref == "" {
		return fail("reference number is required")
	}
	code, err := duty.NormalizeCode(cellVal(row, 1))
	if err != nil {
		return fail(err.Error())
	}
	from, err := requiredDate(cellVal(row, 3))
	if err != nil {
		return fail(err.Error())
	}
	expiry, err := optionalDate(cellVal(row, 4))
	if err != nil {
		return fail(err.Error())
	}
	return domain.TCOExemption{
		ReferenceNumber: ref,
		Code:            code,
		Description:     strings.TrimSpace(cellVal(row, 2)),
		EffectiveDate:   from,
		ExpiryDate:      expiry,
		IsCurrent:       true,
	}, nil
}

var (
	percentPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%$`)
	specificPattern = regexp.MustCompile(`^\$?\s*(\d+(?:\.\d+)?)\s*(?:/|per)\s*\S+`)
)

// parseRateText reads tariff rate notation.
//
//	"Free"             -> 0, ad valorem
//	"5%"               -> 5, ad valorem
//	"5"                -> 5, ad valorem
//	"$12.40/tonne"     -> 12.40, specific
//	"$0.50 per kg"     -> 0.50, specific
func parseRateText(s string) (decimal.Decimal, domain.RateUnit, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "free", "nil", "0":
		return decimal.Zero, domain.RateUnitAdValorem, nil
	case "":
		return decimal.Zero, "", fmt.Errorf("rate is empty")
	}
	if m := percentPattern.FindStringSubmatch(s); m != nil {
		return decimal.RequireFromString(m[1]), domain.RateUnitAdValorem, nil
	}
	if m := specificPattern.FindStringSubmatch(s); m != nil {
		return decimal.RequireFromString(m[1]), domain.RateUnitSpecific, nil
	}
	if d, err := decimal.NewFromString(s); err == nil && !d.IsNegative() {
		return d, domain.RateUnitAdValorem, nil
	}
	return decimal.Zero, "", fmt.Errorf("unrecognised rate %q", s)
}

func parseRemedyType(s string) (domain.RemedyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dumping", "anti-dumping", "ad":
		return domain.RemedyDumping, true
	case "countervailing", "cvd":
		return domain.RemedyCountervailing, true
	}
	return "", false
}

// parseActive treats anything but an explicit negative as active.
func parseActive(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "no", "false", "0", "inactive":
		return false
	}
	return true
}

func requiredDate(s string) (time.Time, error) {
	d, err := optionalDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if d == nil {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return *d, nil
}

func optionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
