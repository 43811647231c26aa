package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/db/memdb"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/testutil/seed"
)

func put(t *testing.T, st *memdb.DB, userID uuid.UUID, d int, session models.Session, status models.AttendanceStatus) {
	t.Helper()
	require.NoError(t, st.CreateAttendance(context.Background(), &models.Attendance{
		ID: uuid.New(), UserID: userID, Date: day(2024, 3, d), Session: session, Status: status, MarkedAt: seed.Epoch,
	}))
}

func TestStats_Breakdowns(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	svc := newService(t, st, seed.Epoch)
	admin := seed.Admin(t, st)
	a := seed.Participant(t, st, "a")
	b := seed.Participant(t, st, "b")

	put(t, st, a.UserID, 11, models.SessionMorning, models.Present)
	put(t, st, a.UserID, 11, models.SessionAfternoon, models.Late)
	put(t, st, a.UserID, 12, models.SessionMorning, models.Present)
	put(t, st, b.UserID, 12, models.SessionMorning, models.Absent)
	put(t, st, b.UserID, 13, models.SessionMorning, models.Present)
	// outside the window
	put(t, st, b.UserID, 1, models.SessionMorning, models.Absent)

	rep, err := svc.Stats(ctx, admin, StatsQuery{From: day(2024, 3, 10), To: day(2024, 3, 15)})
	require.NoError(t, err)

	assert.Equal(t, models.AttendanceBreakdown{Present: 3, Absent: 1, Late: 1, Total: 5, Rate: 0.6}, rep.Overall)

	require.Len(t, rep.PerUser, 2)
	assert.Equal(t, 2, rep.PerUser[a.UserID].Present)
	assert.Equal(t, 1, rep.PerUser[a.UserID].Late)
	assert.InDelta(t, 2.0/3.0, rep.PerUser[a.UserID].Rate, 1e-9)
	assert.InDelta(t, 0.5, rep.PerUser[b.UserID].Rate, 1e-9)

	require.Len(t, rep.Daily, 3)
	assert.Equal(t, "2024-03-11", rep.Daily[0].Date)
	assert.Equal(t, "2024-03-12", rep.Daily[1].Date)
	assert.Equal(t, "2024-03-13", rep.Daily[2].Date)
	assert.Equal(t, 2, rep.Daily[0].Total)
	assert.Equal(t, 1, rep.Daily[1].Present)
	assert.Equal(t, 1, rep.Daily[1].Absent)
}

func TestStats_SingleUserAndDefaults(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	svc := newService(t, st, seed.Epoch)
	a := seed.Participant(t, st, "a")
	b := seed.Participant(t, st, "b")

	put(t, st, a.UserID, 14, models.SessionMorning, models.Present)
	put(t, st, b.UserID, 14, models.SessionMorning, models.Absent)

	rep, err := svc.Stats(ctx, a, StatsQuery{UserID: &a.UserID})
	require.NoError(t, err)
	assert.Nil(t, rep.PerUser)
	assert.Equal(t, 1, rep.Overall.Total)
	assert.Equal(t, 1.0, rep.Overall.Rate)
	assert.Equal(t, day(2024, 3, 15), rep.To)
	assert.Equal(t, day(2024, 2, 15), rep.From, "trailing 30 days")

	_, err = svc.Stats(ctx, a, StatsQuery{UserID: &b.UserID})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.Stats(ctx, a, StatsQuery{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStats_EmptyWindowHasZeroRate(t *testing.T) {
	st := memdb.Open()
	svc := newService(t, st, seed.Epoch)

	rep, err := svc.Compute(context.Background(), StatsQuery{})
	require.NoError(t, err)
	assert.Zero(t, rep.Overall.Total)
	assert.Zero(t, rep.Overall.Rate)
	assert.Empty(t, rep.Daily)
	assert.Empty(t, rep.PerUser)
}

func TestStats_DefaultWindowCoversWindowDays(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	svc := newService(t, st, seed.Epoch)
	p := seed.Participant(t, st, "p")

	mark := func(d time.Time, status models.AttendanceStatus) {
		require.NoError(t, st.CreateAttendance(ctx, &models.Attendance{
			ID: uuid.New(), UserID: p.UserID, Date: d, Session: models.SessionMorning, Status: status, MarkedAt: seed.Epoch,
		}))
	}
	today := day(2024, 3, 15)
	mark(today.AddDate(0, 0, -DefaultWindowDays), models.Absent)
	mark(today.AddDate(0, 0, -(DefaultWindowDays - 1)), models.Present)
	mark(today, models.Present)

	rep, err := svc.Compute(ctx, StatsQuery{})
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, int(rep.To.Sub(rep.From).Hours()/24)+1)
	assert.Equal(t, models.AttendanceBreakdown{Present: 2, Total: 2, Rate: 1}, rep.Overall)
}

func TestStats_RejectsInvertedRange(t *testing.T) {
	svc := newService(t, memdb.Open(), seed.Epoch)
	_, err := svc.Compute(context.Background(), StatsQuery{From: day(2024, 3, 20), To: day(2024, 3, 1)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
