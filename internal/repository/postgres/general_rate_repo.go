package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

type generalRateRepo struct {
	db *sqlx.DB
}

// NewGeneralRateRepo creates a new PostgreSQL-backed GeneralRateRepository.
func NewGeneralRateRepo(db *sqlx.DB) port.GeneralRateRepository {
	return &generalRateRepo{db: db}
}

func (r *generalRateRepo) FindActive(ctx context.Context, code string, date time.Time) (*domain.GeneralRate, error) {
	var rate domain.GeneralRate
	err := r.db.GetContext(ctx, &rate,
		`SELECT code, rate, unit_type, rate_text, effective_from, effective_to
		 FROM general_rates
		 WHERE code = $1
		   AND (effective_from IS NULL OR effective_from <= $2)
		   AND (effective_to IS NULL OR effective_to > $2)
		 ORDER BY effective_from DESC NULLS LAST
		 LIMIT 1`, code, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("generalRateRepo.FindActive: %w", err)
	}
	return &rate, nil
}
