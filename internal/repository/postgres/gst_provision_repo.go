package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

type gstProvisionRepo struct {
	db *sqlx.DB
}

// NewGSTProvisionRepo creates a new PostgreSQL-backed GSTProvisionRepository.
func NewGSTProvisionRepo(db *sqlx.DB) port.GSTProvisionRepository {
	return &gstProvisionRepo{db: db}
}

func (r *gstProvisionRepo) FindActive(ctx context.Context, code string) ([]domain.GSTProvision, error) {
	var provisions []domain.GSTProvision
	var err error
	if code == "" {
		err = r.db.SelectContext(ctx, &provisions,
			`SELECT code, exemption_type, schedule_reference, description, is_active
			 FROM gst_provisions
			 WHERE code IS NULL AND is_active
			 ORDER BY schedule_reference`)
	} else {
		err = r.db.SelectContext(ctx, &provisions,
			`SELECT code, exemption_type, schedule_reference, description, is_active
			 FROM gst_provisions
			 WHERE code = $1 AND is_active
			 ORDER BY schedule_reference`, code)
	}
	if err != nil {
		return nil, fmt.Errorf("gstProvisionRepo.FindActive: %w", err)
	}
	return provisions, nil
}
