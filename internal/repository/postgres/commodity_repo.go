package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"dutycalc/internal/domain"
	"dutycalc/internal/port"
)

type commodityRepo struct {
	db *sqlx.DB
}

// NewCommodityRepo creates a new PostgreSQL-backed CommodityRepository.
func NewCommodityRepo(db *sqlx.DB) port.CommodityRepository {
	return &commodityRepo{db: db}
}

func (r *commodityRepo) GetByCode(ctx context.Context, code string) (*domain.CommodityCode, error) {
	var cc domain.CommodityCode
	err := r.db.GetContext(ctx, &cc,
		"SELECT code, description, level FROM commodity_codes WHERE code = $1", code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("commodityRepo.GetByCode: %w", err)
	}
	return &cc, nil
}

func (r *commodityRepo) Search(ctx context.Context, query string, limit int) ([]domain.CommodityCode, error) {
	query = strings.TrimSpace(query)
	codes := []domain.CommodityCode{}
	err := r.db.SelectContext(ctx, &codes,
		`SELECT code, description, level
		 FROM commodity_codes
		 WHERE code LIKE $1 OR description ILIKE $2
		 ORDER BY level, code
		 LIMIT $3`,
		escapeLike(query)+"%", "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("commodityRepo.Search: %w", err)
	}
	return codes, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
