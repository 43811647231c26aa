package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/app"
	"github.com/Spok95/hackathon-portal/internal/attendance"
	"github.com/Spok95/hackathon-portal/internal/config"
	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/export"
	"github.com/Spok95/hackathon-portal/internal/jobs"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

var errHelp = errors.New("help provided")

// operator is the caller used for CLI reads that require admin rights.
var operator = models.Caller{Role: models.Superadmin}

type commandLine struct {
	cfg     *config.Config
	portal  *app.Portal
	migrate func(ctx context.Context) error
	log     *zap.Logger
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                   - apply database migrations")
	fmt.Fprintln(cli.out, "  serve                                     - run /healthz and /metrics until interrupted")
	fmt.Fprintln(cli.out, "  recompute -user ID | -all                 - re-derive total scores from graded submissions")
	fmt.Fprintln(cli.out, "  leaderboard [-limit N]                    - print the ranked participants")
	fmt.Fprintln(cli.out, "  attendance-stats [-user ID] [-from DATE] [-to DATE]")
	fmt.Fprintln(cli.out, "  export -report scores|attendance|submissions|participant [-user ID] [-format xlsx|csv] -out PATH")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	// one id per invocation so its log lines can be grouped
	ctx = ctxutil.WithRequestID(ctx, uuid.NewString())
	switch args[1] {
	case "migrate":
		return cli.migrate(ctx)
	case "serve":
		return cli.serve(ctx)
	case "recompute":
		return cli.recompute(ctx, args[2:])
	case "leaderboard":
		return cli.leaderboard(ctx, args[2:])
	case "attendance-stats":
		return cli.attendanceStats(ctx, args[2:])
	case "export":
		return cli.export(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := app.StartHTTP(ctx, cli.cfg.HTTPAddr, cli.portal.Store, cli.log)
	runner := jobs.New(ctx, cli.log)
	if cli.cfg.RepairInterval > 0 {
		runner.Every(cli.cfg.RepairInterval, jobs.RepairTotalsJob, jobs.RepairTotals(cli.portal.Aggregator, cli.log))
	}
	cli.log.Info("ops server started",
		zap.String("addr", cli.cfg.HTTPAddr),
		zap.Duration("repair_interval", cli.cfg.RepairInterval),
	)

	<-srv.Done()
	runner.Wait()
	cli.log.Info("ops server stopped")
	return nil
}

func (cli *commandLine) recompute(ctx context.Context, args []string) error {
	fs := cli.flagSet("recompute")
	userFlag := fs.String("user", "", "user ID to recompute")
	all := fs.Bool("all", false, "recompute every user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch {
	case *all:
		rep, err := cli.portal.Aggregator.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "users: %d, repaired: %d, failed: %d\n", rep.Users, rep.Repaired, len(rep.Failed))
		for _, f := range rep.Failed {
			fmt.Fprintf(cli.out, "  %s: %v\n", f.UserID, f.Err)
		}
		if len(rep.Failed) > 0 {
			return fmt.Errorf("%d users could not be recomputed", len(rep.Failed))
		}
		return nil
	case *userFlag != "":
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			return fmt.Errorf("-user: %w", err)
		}
		total, err := cli.portal.Aggregator.Recompute(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%s total score: %d\n", id, total)
		return nil
	default:
		fs.Usage()
		return errHelp
	}
}

func (cli *commandLine) leaderboard(ctx context.Context, args []string) error {
	fs := cli.flagSet("leaderboard")
	limit := fs.Int("limit", 0, "number of entries (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entries, err := cli.portal.Leaderboard.Top(ctx, *limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tEMAIL\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", e.Rank, e.Name, e.Email, e.TotalScore)
	}
	return tw.Flush()
}

func (cli *commandLine) attendanceStats(ctx context.Context, args []string) error {
	fs := cli.flagSet("attendance-stats")
	userFlag := fs.String("user", "", "restrict to one user ID")
	fromFlag := fs.String("from", "", "first day, YYYY-MM-DD")
	toFlag := fs.String("to", "", "last day, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var q attendance.StatsQuery
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			return fmt.Errorf("-user: %w", err)
		}
		q.UserID = &id
	}
	var err error
	if q.From, err = parseDate(*fromFlag); err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	if q.To, err = parseDate(*toFlag); err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	rep, err := cli.portal.Attendance.Compute(ctx, q)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s .. %s\n", rep.From.Format(time.DateOnly), rep.To.Format(time.DateOnly))
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPRESENT\tABSENT\tLATE\tTOTAL\tRATE")
	for _, d := range rep.Daily {
		printBreakdown(tw, d.Date, d.AttendanceBreakdown)
	}
	printBreakdown(tw, "overall", rep.Overall)
	return tw.Flush()
}

func printBreakdown(w io.Writer, label string, b models.AttendanceBreakdown) {
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.2f%%\n", label, b.Present, b.Absent, b.Late, b.Total, b.Rate*100)
}

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.flagSet("export")
	report := fs.String("report", "", "scores|attendance|submissions|participant")
	userFlag := fs.String("user", "", "user ID (participant report, or filter for attendance/submissions)")
	formatFlag := fs.String("format", "xlsx", "xlsx|csv")
	out := fs.String("out", "", "output file or directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *report == "" || *out == "" {
		fs.Usage()
		return errHelp
	}
	format, err := export.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}

	req := export.Request{Report: *report}
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			return fmt.Errorf("-user: %w", err)
		}
		req.UserID = &id
		req.Attendance = store.AttendanceFilter{UserID: &id}
		req.Submissions = store.SubmissionFilter{UserID: &id}
	}

	sheets, err := cli.portal.Reports.Build(ctx, operator, req)
	if err != nil {
		return err
	}

	path := *out
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		qualifier := ""
		if req.UserID != nil {
			qualifier = req.UserID.String()
		}
		path = path + string(os.PathSeparator) + export.FileName(*report, qualifier, format, time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Render(f, *report, sheets, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, path)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
