package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dutycalc/internal/domain"
)

const batchSize = 500

// writeSeed renders data as a single-transaction SQL script with batched
// multi-row INSERTs.
func writeSeed(w io.Writer, data *seedData, source string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "-- Tariff seed data generated from %s.\n", source)
	fmt.Fprintf(&b, "-- %d commodity codes, %d general rates, %d FTA rates, %d trade remedies, %d TCOs.\n",
		len(data.commodities), len(data.general), len(data.fta), len(data.remedies), len(data.tcos))
	b.WriteString("BEGIN;\n\n")

	writeBatches(&b, len(data.commodities),
		"INSERT INTO commodity_codes (code, description, level) VALUES",
		"ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description",
		func(i int) string {
			c := &data.commodities[i]
			return fmt.Sprintf("(%s, %s, %d)", quote(c.Code), quote(c.Description), c.Level)
		})

	writeBatches(&b, len(data.general),
		"INSERT INTO general_rates (code, rate, unit_type, rate_text, effective_from, effective_to) VALUES",
		"",
		func(i int) string {
			r := &data.general[i]
			return fmt.Sprintf("(%s, %s, %s, %s, %s, %s)",
				quote(r.Code), r.Rate.String(), quote(string(r.UnitType)), quote(r.RateText),
				dateOrNull(r.EffectiveFrom), dateOrNull(r.EffectiveTo))
		})

	writeBatches(&b, len(data.fta),
		"INSERT INTO fta_rates (code, agreement_code, country_code, preferential_rate, effective_rate, staging_category, effective_date, elimination_date, is_active) VALUES",
		"",
		func(i int) string {
			r := &data.fta[i]
			return fmt.Sprintf("(%s, %s, %s, %s, %s, %s, %s, %s, %t)",
				quote(r.Code), quote(r.AgreementCode), quote(r.CountryCode), r.PreferentialRate.String(),
				decimalOrNull(r.EffectiveRate), quote(r.StagingCategory),
				dateOrNull(&r.EffectiveDate), dateOrNull(r.EliminationDate), r.IsActive)
		})

	writeBatches(&b, len(data.remedies),
		"INSERT INTO trade_remedies (code, country_code, case_number, remedy_type, rate, specific_amount, specific_unit, exporter_name, effective_date, expiry_date, is_active) VALUES",
		"",
		func(i int) string {
			r := &data.remedies[i]
			return fmt.Sprintf("(%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %t)",
				quote(r.Code), quote(r.CountryCode), quote(r.CaseNumber), quote(string(r.RemedyType)),
				decimalOrNull(r.Rate), decimalOrNull(r.SpecificAmount), stringOrNull(r.SpecificUnit),
				stringOrNull(r.ExporterName), dateOrNull(&r.EffectiveDate), dateOrNull(r.ExpiryDate), r.IsActive)
		})

	writeBatches(&b, len(data.tcos),
		"INSERT INTO tco_exemptions (reference_number, code, description, effective_date, expiry_date, is_current) VALUES",
		"ON CONFLICT (reference_number) DO NOTHING",
		func(i int) string {
			r := &data.tcos[i]
			return fmt.Sprintf("(%s, %s, %s, %s, %s, %t)",
				quote(r.ReferenceNumber), quote(r.Code), quote(r.Description),
				dateOrNull(&r.EffectiveDate), dateOrNull(r.ExpiryDate), r.IsCurrent)
		})

	b.WriteString("COMMIT;\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBatches(b *strings.Builder, n int, insert, conflict string, values func(i int) string) {
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		b.WriteString(insert)
		b.WriteString("\n")
		for i := start; i < end; i++ {
			if i > start {
				b.WriteString(",\n")
			}
			b.WriteString("  ")
			b.WriteString(values(i))
		}
		if conflict != "" {
			b.WriteString("\n")
			b.WriteString(conflict)
		}
		b.WriteString(";\n\n")
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func stringOrNull(s *string) string {
	if s == nil {
		return "NULL"
	}
	return quote(*s)
}

func decimalOrNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return "NULL"
	}
	return d.Decimal.String()
}

func dateOrNull(t *time.Time) string {
	if t == nil {
		return "NULL"
	}
	return quote(t.Format(domain.DateLayout))
}
