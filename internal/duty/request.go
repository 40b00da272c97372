package duty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"dutycalc/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Request carries the normalized facts every resolver needs.
type Request struct {
	Code         string
	CountryCode  string
	ExporterName string
	Date         time.Time
	CustomsValue decimal.Decimal
	Quantity     *decimal.Decimal
}

// RequestFromInput builds a Request from a normalized input.
func RequestFromInput(in domain.DutyCalculationInput) Request {
	return Request{
		Code:         in.HSCode,
		CountryCode:  in.CountryCode,
		ExporterName: in.ExporterName,
		Date:         in.CalculationDate,
		CustomsValue: in.CustomsValue,
		Quantity:     in.Quantity,
	}
}

// RoundMoney rounds to whole cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// AdValorem returns ratePct percent of base, rounded to cents.
func AdValorem(base, ratePct decimal.Decimal) decimal.Decimal {
	return RoundMoney(base.Mul(ratePct).Div(hundred))
}

// specificAmount prices a per-unit rate. ok is false when no quantity was
// supplied, in which case the amount is zero.
func specificAmount(perUnit decimal.Decimal, qty *decimal.Decimal) (amount decimal.Decimal, ok bool) {
	if qty == nil {
		return decimal.Zero, false
	}
	return RoundMoney(perUnit.Mul(*qty)), true
}

func percent(d decimal.Decimal) string {
	return d.String() + "%"
}

// absentOnNotFound adapts a repository result to a LookupFunc result.
func absentOnNotFound[T any](v *T, err error) (*T, bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

// storeError marks a repository failure as ErrStoreUnavailable. Context
// errors are passed through so cancellation is never mistaken for an outage.
func storeError(source string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s lookup: %w: %w", source, domain.ErrStoreUnavailable, err)
}
