package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

type ftaRateRepo struct {
	db *sqlx.DB
}

// NewFTARateRepo creates a new PostgreSQL-backed FTARateRepository.
func NewFTARateRepo(db *sqlx.DB) port.FTARateRepository {
	return &ftaRateRepo{db: db}
}

func (r *ftaRateRepo) FindValid(ctx context.Context, code, countryCode string, date time.Time) ([]domain.FTARate, error) {
	var rates []domain.FTARate
	err := r.db.SelectContext(ctx, &rates,
		`SELECT code, agreement_code, country_code, preferential_rate, effective_rate,
		        staging_category, effective_date, elimination_date, is_active
		 FROM fta_rates
		 WHERE code = $1
		   AND country_code = $2
		   AND is_active
		   AND effective_date <= $3
		   AND (elimination_date IS NULL OR elimination_date > $3)
		 ORDER BY agreement_code`, code, countryCode, date)
	if err != nil {
		return nil, fmt.Errorf("ftaRateRepo.FindValid: %w", err)
	}
	return rates, nil
}
