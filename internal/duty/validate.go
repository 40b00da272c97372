package duty

import (
	"fmt"
	"strings"
	"time"

	"dutycalc/internal/domain"
)

// NormalizeCode strips the separators commonly used when writing commodity
// codes ("8471.30.00", "8471 30 00") and checks that 2 to 10 digits remain.
func NormalizeCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ' ' || r == '-':
		default:
			return "", domain.NewValidationError("hs_code", fmt.Sprintf("unexpected character %q", r))
		}
	}
	code := b.String()
	if len(code) < 2 || len(code) > 10 {
		return "", domain.NewValidationError("hs_code", "must contain between 2 and 10 digits")
	}
	return code, nil
}

// NormalizeCountry upper-cases an ISO alpha-2 or alpha-3 country code.
func NormalizeCountry(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 && len(code) != 3 {
		return "", domain.NewValidationError("country_code", "must be an ISO alpha-2 or alpha-3 code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", domain.NewValidationError("country_code", "must contain letters only")
		}
	}
	return code, nil
}

// NormalizeInput validates in and fills defaults. A zero calculation date
// becomes today's date taken from now.
func NormalizeInput(in domain.DutyCalculationInput, now time.Time) (domain.DutyCalculationInput, error) {
	out := in

	code, err := NormalizeCode(in.HSCode)
	if err != nil {
		return out, err
	}
	out.HSCode = code

	country, err := NormalizeCountry(in.CountryCode)
	if err != nil {
		return out, err
	}
	out.CountryCode = country

	if !in.CustomsValue.IsPositive() {
		return out, domain.NewValidationError("customs_value", "must be greater than zero")
	}
	if in.Quantity != nil && !in.Quantity.IsPositive() {
		return out, domain.NewValidationError("quantity", "must be greater than zero when provided")
	}

	switch domain.ValueBasis(strings.ToUpper(string(in.ValueBasis))) {
	case "":
		out.ValueBasis = domain.ValueBasisCIF
	case domain.ValueBasisCIF:
		out.ValueBasis = domain.ValueBasisCIF
	case domain.ValueBasisFOB:
		out.ValueBasis = domain.ValueBasisFOB
	default:
		return out, domain.NewValidationError("value_basis", "must be CIF or FOB")
	}

	out.ExporterName = strings.TrimSpace(in.ExporterName)

	date := in.CalculationDate
	if date.IsZero() {
		date = now
	}
	out.CalculationDate = truncateToDate(date)
	return out, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
