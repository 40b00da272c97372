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

type tcoRepo struct {
	db *sqlx.DB
}

// NewTCORepo creates a new PostgreSQL-backed TCORepository.
func NewTCORepo(db *sqlx.DB) port.TCORepository {
	return &tcoRepo{db: db}
}

func (r *tcoRepo) FindCurrent(ctx context.Context, code string, date time.Time) (*domain.TCOExemption, error) {
	var tco domain.TCOExemption
	err := r.db.GetContext(ctx, &tco,
		`SELECT reference_number, code, description, effective_date, expiry_date, is_current
		 FROM tco_exemptions
		 WHERE code = $1
		   AND is_current
		   AND effective_date <= $2
		   AND (expiry_date IS NULL OR expiry_date > $2)
		 ORDER BY effective_date DESC, reference_number
		 LIMIT 1`, code, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("tcoRepo.FindCurrent: %w", err)
	}
	return &tco, nil
}
