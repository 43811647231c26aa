//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/db"
)

type DBHandle struct {
	DB     *sql.DB
	Store  *db.Store
	cancel func()
	stop   func(context.Context) error
}

func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// Reset empties every table between tests sharing one container.
func (h *DBHandle) Reset(ctx context.Context) error {
	_, err := h.DB.ExecContext(ctx, `TRUNCATE announcement_reads, announcement_attachments, announcements,
		attendance, submissions, tasks, users RESTART IDENTITY CASCADE`)
	return err
}

// Start runs a throwaway PostgreSQL with the embedded migrations applied.
func Start(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("portal"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	fail := func(err error) (*DBHandle, error) {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fail(err)
	}

	sqlDB, err := sql.Open("postgres", uri)
	if err != nil {
		return fail(err)
	}
	if err := waitReady(ctx, sqlDB); err != nil {
		return fail(err)
	}
	if err := db.Migrate(ctx, sqlDB, zap.NewNop()); err != nil {
		return fail(err)
	}

	return &DBHandle{
		DB:     sqlDB,
		Store:  db.New(sqlDB, "postgres"),
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

func waitReady(ctx context.Context, db *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
