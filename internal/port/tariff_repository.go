package port

import (
	"context"
	"time"

	"dutycalc/internal/domain"
)

// Tariff repositories are read-only and query a single, exact code. Walking
// the code hierarchy is left to the caller.
//
// Validity windows are half-open for every source: a record applies from its
// start date inclusive until its end date exclusive (effective_to,
// elimination_date, expiry_date). A record ending on date does not apply on
// date.

// CommodityRepository defines read access to the commodity-code hierarchy.
type CommodityRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.CommodityCode, error)
	Search(ctx context.Context, query string, limit int) ([]domain.CommodityCode, error)
}

// GeneralRateRepository defines read access to statutory duty rates.
type GeneralRateRepository interface {
	// FindActive returns the rate for code in force on date, or
	// domain.ErrNotFound. effective_to is exclusive.
	FindActive(ctx context.Context, code string, date time.Time) (*domain.GeneralRate, error)
}

// FTARateRepository defines read access to preferential trade-agreement rates.
type FTARateRepository interface {
	// FindValid returns every active agreement rate for (code, country) valid
	// on date, ordered by agreement code.
	FindValid(ctx context.Context, code, countryCode string, date time.Time) ([]domain.FTARate, error)
}

// TradeRemedyRepository defines read access to anti-dumping and
// countervailing measures.
type TradeRemedyRepository interface {
	// FindActive returns every active measure for (code, country) in force on
	// date, both exporter-specific and country-general.
	FindActive(ctx context.Context, code, countryCode string, date time.Time) ([]domain.TradeRemedy, error)
}

// TCORepository defines read access to tariff concession orders.
type TCORepository interface {
	// FindCurrent returns the current concession for code valid on date, or
	// domain.ErrNotFound.
	FindCurrent(ctx context.Context, code string, date time.Time) (*domain.TCOExemption, error)
}

// GSTProvisionRepository defines read access to GST provisions.
type GSTProvisionRepository interface {
	// FindActive returns active provisions for code. An empty code returns the
	// provisions that apply to all goods.
	FindActive(ctx context.Context, code string) ([]domain.GSTProvision, error)
}

// StoreHealth reports whether the tariff store session is usable.
type StoreHealth interface {
	Ping(ctx context.Context) error
}
