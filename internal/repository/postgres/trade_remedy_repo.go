package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

type tradeRemedyRepo struct {
	db *sqlx.DB
}

// NewTradeRemedyRepo creates a new PostgreSQL-backed TradeRemedyRepository.
func NewTradeRemedyRepo(db *sqlx.DB) port.TradeRemedyRepository {
	return &tradeRemedyRepo{db: db}
}

func (r *tradeRemedyRepo) FindActive(ctx context.Context, code, countryCode string, date time.Time) ([]domain.TradeRemedy, error) {
	var remedies []domain.TradeRemedy
	err := r.db.SelectContext(ctx, &remedies,
		`SELECT code, country_code, case_number, remedy_type, rate, specific_amount,
		        specific_unit, exporter_name, effective_date, expiry_date, is_active
		 FROM trade_remedies
		 WHERE code = $1
		   AND country_code = $2
		   AND is_active
		   AND effective_date <= $3
		   AND (expiry_date IS NULL OR expiry_date > $3)
		 ORDER BY remedy_type, case_number, exporter_name NULLS FIRST`, code, countryCode, date)
	if err != nil {
		return nil, fmt.Errorf("tradeRemedyRepo.FindActive: %w", err)
	}
	return remedies, nil
}
