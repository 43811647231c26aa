package db

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies embedded goose migrations up to the latest version.
func Migrate(ctx context.Context, database *sql.DB, log *zap.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{s: log.Sugar().Named("goose")})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		log.Error("migrations failed", zap.Error(err))
		return err
	}
	return nil
}

// MigrationVersion reports the current schema version.
func MigrationVersion(ctx context.Context, database *sql.DB) (int64, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, database)
}

type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.s.Fatalf(format, v...) }
func (l gooseLogger) Printf(format string, v ...interface{}) { l.s.Infof(format, v...) }
