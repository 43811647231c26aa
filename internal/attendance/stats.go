package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

// StatsQuery selects one user (UserID set) or everybody, over [From, To].
// Zero bounds default to the trailing window ending today.
type StatsQuery struct {
	UserID *uuid.UUID
	From   time.Time
	To     time.Time
}

type DailyBreakdown struct {
	Date string `json:"date"` // YYYY-MM-DD
	models.AttendanceBreakdown
}

type Report struct {
	From    time.Time                                `json:"from"`
	To      time.Time                                `json:"to"`
	Overall models.AttendanceBreakdown               `json:"overall"`
	PerUser map[uuid.UUID]models.AttendanceBreakdown `json:"perUser,omitempty"`
	Daily   []DailyBreakdown                         `json:"dailyTrends"`
}

// Stats computes attendance breakdowns. Participants may only query themselves.
func (s *Service) Stats(ctx context.Context, caller models.Caller, q StatsQuery) (*Report, error) {
	if !caller.IsAdmin() {
		if q.UserID == nil || *q.UserID != caller.UserID {
			return nil, apperr.Forbidden("participants can only view their own statistics")
		}
	}
	return s.Compute(ctx, q)
}

// Compute is Stats without the caller check, for operator tooling.
func (s *Service) Compute(ctx context.Context, q StatsQuery) (*Report, error) {
	to := q.To
	if to.IsZero() {
		to = s.today()
	} else {
		to = models.DateOf(to, s.loc)
	}
	from := q.From
	if from.IsZero() {
		// both ends are inclusive
		from = to.AddDate(0, 0, -(s.windowDays - 1))
	} else {
		from = models.DateOf(from, s.loc)
	}
	if from.After(to) {
		return nil, apperr.Invalid("from", "start date is after end date")
	}

	counts, err := s.store.AttendanceCounts(ctx, store.AttendanceFilter{UserID: q.UserID, From: from, To: to})
	if err != nil {
		return nil, err
	}
	return fold(counts, from, to, q.UserID == nil), nil
}

// fold aggregates grouped counts; the counts arrive ordered by date ascending.
func fold(counts []store.AttendanceCount, from, to time.Time, perUser bool) *Report {
	r := &Report{From: from, To: to, Daily: []DailyBreakdown{}}
	if perUser {
		r.PerUser = map[uuid.UUID]models.AttendanceBreakdown{}
	}
	dayIdx := map[string]int{}
	for _, c := range counts {
		r.Overall.Add(c.Status, c.Count)

		if perUser {
			b := r.PerUser[c.UserID]
			b.Add(c.Status, c.Count)
			r.PerUser[c.UserID] = b
		}

		day := c.Date.UTC().Format(time.DateOnly)
		i, ok := dayIdx[day]
		if !ok {
			i = len(r.Daily)
			dayIdx[day] = i
			r.Daily = append(r.Daily, DailyBreakdown{Date: day})
		}
		r.Daily[i].Add(c.Status, c.Count)
	}
	return r
}
