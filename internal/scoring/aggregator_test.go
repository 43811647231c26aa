package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/db/memdb"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/testutil/seed"
)

func grade(t *testing.T, st *memdb.DB, subID uuid.UUID, score int, by uuid.UUID) {
	t.Helper()
	require.NoError(t, st.SaveGrade(context.Background(), subID, models.Grade{
		Score: score, Status: models.StatusGraded, GradedBy: by, GradedAt: seed.Epoch,
	}))
}

func TestRecompute_SumsGradedAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	admin := seed.Admin(t, st)
	p := seed.Participant(t, st, "alice")

	for _, s := range []int{15, 25} {
		task := seed.Task(t, st, admin.UserID, 50, seed.Epoch)
		sub := seed.Submission(t, st, p.UserID, task.ID)
		grade(t, st, sub.ID, s, admin.UserID)
	}
	// returned with a score still set does not count
	task := seed.Task(t, st, admin.UserID, 50, seed.Epoch)
	sub := seed.Submission(t, st, p.UserID, task.ID)
	require.NoError(t, st.SaveGrade(ctx, sub.ID, models.Grade{Score: 40, Status: models.StatusReturned, GradedBy: admin.UserID}))

	// a garbage stored total must not influence the result
	require.NoError(t, st.SetTotalScore(ctx, p.UserID, 9999))

	agg := NewAggregator(st, zap.NewNop())
	first, err := agg.Recompute(ctx, p.UserID)
	require.NoError(t, err)
	second, err := agg.Recompute(ctx, p.UserID)
	require.NoError(t, err)

	assert.Equal(t, 40, first)
	assert.Equal(t, first, second)

	u, err := st.GetUser(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, 40, u.TotalScore)
}

func TestRecompute_UnknownUser(t *testing.T) {
	agg := NewAggregator(memdb.Open(), zap.NewNop())
	_, err := agg.Recompute(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAfterWrite_ReportsInconsistency(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	p := seed.Participant(t, st, "bob")
	st.FailOn("SumGradedScores", errors.New("timeout"))

	err := NewAggregator(st, zap.NewNop()).AfterWrite(ctx, p.UserID, "grade")
	require.ErrorIs(t, err, apperr.ErrAggregationInconsistency)
	assert.Contains(t, err.Error(), p.UserID.String())
}

func TestRecomputeAll_RepairsStaleTotals(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	admin := seed.Admin(t, st)
	a := seed.Participant(t, st, "a")
	b := seed.Participant(t, st, "b")

	task := seed.Task(t, st, admin.UserID, 100, seed.Epoch)
	grade(t, st, seed.Submission(t, st, a.UserID, task.ID).ID, 30, admin.UserID)
	grade(t, st, seed.Submission(t, st, b.UserID, task.ID).ID, 50, admin.UserID)
	require.NoError(t, st.SetTotalScore(ctx, b.UserID, 50))

	rep, err := NewAggregator(st, zap.NewNop()).RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Users)
	assert.Equal(t, 1, rep.Repaired, "only a was stale")
	assert.Empty(t, rep.Failed)

	u, err := st.GetUser(ctx, a.UserID)
	require.NoError(t, err)
	assert.Equal(t, 30, u.TotalScore)
}

func TestRecomputeAll_CollectsFailures(t *testing.T) {
	st := memdb.Open()
	seed.Participant(t, st, "a")
	seed.Participant(t, st, "b")
	st.FailOn("SetTotalScore", errors.New("read only"))

	rep, err := NewAggregator(st, zap.NewNop()).RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rep.Failed, 2)
}

func TestRecompute_ConcurrentCallsConverge(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	admin := seed.Admin(t, st)
	p := seed.Participant(t, st, "busy")
	agg := NewAggregator(st, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		task := seed.Task(t, st, admin.UserID, 10, seed.Epoch.Add(time.Hour))
		sub := seed.Submission(t, st, p.UserID, task.ID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.SaveGrade(ctx, sub.ID, models.Grade{Score: 10, Status: models.StatusGraded, GradedBy: admin.UserID})
			_, _ = agg.Recompute(ctx, p.UserID)
		}()
	}
	wg.Wait()

	u, err := st.GetUser(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, 100, u.TotalScore)
}
