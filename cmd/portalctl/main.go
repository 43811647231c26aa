package main

import (
	"context"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/app"
	"github.com/Spok95/hackathon-portal/internal/config"
	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/db"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctxutil.SetDBTimeout(cfg.DBTimeout)
	ctx := context.Background()

	st, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Base.Fatal("db open failed", zap.Error(err))
	}
	defer func() { _ = st.Close() }()

	cli := &commandLine{
		cfg: cfg,
		portal: app.NewPortal(st, lg.Base, app.Options{
			Location:             cfg.Location,
			LeaderboardLimit:     cfg.LeaderboardLimit,
			AttendanceWindowDays: cfg.AttendanceWindowDays,
		}),
		migrate: func(ctx context.Context) error { return db.Migrate(ctx, st.DB(), lg.Base) },
		log:     lg.Base,
		out:     os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		observability.CaptureErr(err)
		lg.Base.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
