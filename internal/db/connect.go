package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store is the PostgreSQL implementation of store.Store.
type Store struct {
	db *sqlx.DB
}

// Open connects through the pgx stdlib driver and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	dbx, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dbx.SetMaxOpenConns(20)
	dbx.SetMaxIdleConns(5)
	dbx.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if err := dbx.PingContext(pctx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{db: dbx}, nil
}

// New wraps an existing handle; driverName picks the bind style ("pgx" or "postgres").
func New(database *sql.DB, driverName string) *Store {
	return &Store{db: sqlx.NewDb(database, driverName)}
}

// DB exposes the raw handle for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db.DB }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }
