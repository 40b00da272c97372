package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"dutycalc/internal/config"
	"dutycalc/internal/port"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	return db, nil
}

type storeHealth struct {
	db *sqlx.DB
}

// NewStoreHealth creates a StoreHealth that pings the connection pool.
func NewStoreHealth(db *sqlx.DB) port.StoreHealth {
	return &storeHealth{db: db}
}

func (h *storeHealth) Ping(ctx context.Context) error {
	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("storeHealth.Ping: %w", err)
	}
	return nil
}
