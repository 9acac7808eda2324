package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// conn pairs the database/sql handle with the pool behind it.
type conn struct {
	db   *sql.DB
	pool *pgxpool.Pool
}

func (c *conn) Close() {
	if c == nil {
		return
	}
	if c.db != nil {
		_ = c.db.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// poolSettings bound a pool. ConnectTimeout limits each dial so that an
// unreachable host fails instead of hanging until the OS gives up.
type poolSettings struct {
	MaxConns       int32
	ConnectTimeout time.Duration
}

func newPoolConfig(p models.ConnectionProfile, ps poolSettings) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(p.URL())
	if err != nil {
		return nil, fmt.Errorf("parse connection profile: %w", err)
	}
	if ps.MaxConns > 0 {
		cfg.MaxConns = ps.MaxConns
	}
	if ps.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = ps.ConnectTimeout
	}
	return cfg, nil
}

// openPool builds a lazily connecting pool for p. It is a package variable so
// tests can substitute sqlmock connections.
var openPool = func(ctx context.Context, p models.ConnectionProfile, ps poolSettings) (*conn, error) {
	cfg, err := newPoolConfig(p, ps)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	return &conn{db: stdlib.OpenDBFromPool(pool), pool: pool}, nil
}
