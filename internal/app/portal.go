package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/announcements"
	"github.com/Spok95/hackathon-portal/internal/attendance"
	"github.com/Spok95/hackathon-portal/internal/export"
	"github.com/Spok95/hackathon-portal/internal/scoring"
	"github.com/Spok95/hackathon-portal/internal/store"
	"github.com/Spok95/hackathon-portal/internal/submissions"
	"github.com/Spok95/hackathon-portal/internal/tasks"
	"github.com/Spok95/hackathon-portal/internal/users"
)

type Options struct {
	Location             *time.Location
	LeaderboardLimit     int
	AttendanceWindowDays int
}

// Portal wires every service over one store. The aggregator is shared so that
// per-user recompute ordering holds across services.
type Portal struct {
	Store         store.Store
	Aggregator    *scoring.Aggregator
	Leaderboard   *scoring.Leaderboard
	Users         *users.Service
	Tasks         *tasks.Service
	Submissions   *submissions.Service
	Attendance    *attendance.Service
	Announcements *announcements.Service
	Reports       *export.Reporter
}

func NewPortal(st store.Store, log *zap.Logger, opt Options) *Portal {
	agg := scoring.NewAggregator(st, log)
	board := scoring.NewLeaderboard(st, opt.LeaderboardLimit)
	return &Portal{
		Store:         st,
		Aggregator:    agg,
		Leaderboard:   board,
		Users:         users.New(st, log, opt.Location),
		Tasks:         tasks.New(st, log),
		Submissions:   submissions.New(st, agg, log),
		Attendance:    attendance.New(st, log, opt.Location, opt.AttendanceWindowDays),
		Announcements: announcements.New(st, log),
		Reports:       export.NewReporter(st, board, log),
	}
}
