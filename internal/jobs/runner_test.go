package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/db/memdb"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/scoring"
	"github.com/Spok95/hackathon-portal/internal/testutil/seed"
)

func TestRunner_KeepsGoingAfterPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, zap.NewNop())

	var calls atomic.Int32
	r.Every(5*time.Millisecond, "flaky", func(context.Context) error {
		if calls.Add(1) == 1 {
			panic("first run explodes")
		}
		return nil
	})

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(jobFailures.WithLabelValues("flaky", reasonPanic)))
	assert.Zero(t, testutil.ToFloat64(jobFailures.WithLabelValues("flaky", reasonError)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(jobRuns.WithLabelValues("flaky")), 3.0)
	assert.Positive(t, testutil.ToFloat64(jobLastSuccess.WithLabelValues("flaky")))
}

func TestRunner_CountsErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(ctx, zap.NewNop())

	var calls atomic.Int32
	r.Every(5*time.Millisecond, "failing", func(context.Context) error {
		calls.Add(1)
		return errors.New("nope")
	})
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	r.Wait()

	runs := testutil.ToFloat64(jobRuns.WithLabelValues("failing"))
	assert.Equal(t, runs, testutil.ToFloat64(jobFailures.WithLabelValues("failing", reasonError)))
	assert.Zero(t, testutil.ToFloat64(jobLastSuccess.WithLabelValues("failing")))
}

func TestRepairTotals(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	admin := seed.Admin(t, st)
	p := seed.Participant(t, st, "p")
	task := seed.Task(t, st, admin.UserID, 10, seed.Epoch)
	sub := seed.Submission(t, st, p.UserID, task.ID)
	require.NoError(t, st.SaveGrade(ctx, sub.ID, models.Grade{Score: 9, Status: models.StatusGraded, GradedBy: admin.UserID}))

	job := RepairTotals(scoring.NewAggregator(st, zap.NewNop()), zap.NewNop())
	before := testutil.ToFloat64(totalsRepaired)
	require.NoError(t, job(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(totalsRepaired)-before)
	u, err := st.GetUser(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, 9, u.TotalScore)

	st.FailOn("SetTotalScore", errors.New("read only"))
	assert.ErrorContains(t, job(ctx), "2 of 2 users failed")
}
