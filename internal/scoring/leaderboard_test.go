package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hackathon-portal/internal/db/memdb"
	"github.com/Spok95/hackathon-portal/internal/testutil/seed"
)

func TestLeaderboard_PositionalRanksWithTies(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	seed.Admin(t, st)

	names := []string{"p50", "p80a", "p80b", "p30"}
	scores := []int{50, 80, 80, 30}
	for i, name := range names {
		c := seed.Participant(t, st, name)
		require.NoError(t, st.SetTotalScore(ctx, c.UserID, scores[i]))
	}

	got, err := NewLeaderboard(st, 10).Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 4)

	var (
		ranks  []int
		totals []int
		order  []string
	)
	for _, e := range got {
		ranks = append(ranks, e.Rank)
		totals = append(totals, e.TotalScore)
		order = append(order, e.Name)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, ranks)
	assert.Equal(t, []int{80, 80, 50, 30}, totals)
	assert.Equal(t, []string{"p80a", "p80b", "p50", "p30"}, order, "ties keep registration order")
}

func TestLeaderboard_OnlyActiveParticipants(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	admin := seed.Admin(t, st)
	require.NoError(t, st.SetTotalScore(ctx, admin.UserID, 1000))

	gone := seed.Participant(t, st, "gone")
	require.NoError(t, st.SetTotalScore(ctx, gone.UserID, 500))
	require.NoError(t, st.SetUserActive(ctx, gone.UserID, false))

	here := seed.Participant(t, st, "here")
	require.NoError(t, st.SetTotalScore(ctx, here.UserID, 1))

	got, err := NewLeaderboard(st, 10).All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, here.UserID, got[0].UserID)
	assert.Equal(t, 1, got[0].Rank)
}

func TestLeaderboard_Limit(t *testing.T) {
	ctx := context.Background()
	st := memdb.Open()
	for i := 0; i < 5; i++ {
		c := seed.Participant(t, st, "p")
		require.NoError(t, st.SetTotalScore(ctx, c.UserID, i*10))
	}

	lb := NewLeaderboard(st, 3)
	got, err := lb.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3, "default limit")
	assert.Equal(t, 40, got[0].TotalScore)

	got, err = lb.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = lb.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestLeaderboard_Empty(t *testing.T) {
	got, err := NewLeaderboard(memdb.Open(), 0).Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, DefaultLeaderboardLimit, NewLeaderboard(memdb.Open(), 0).defaultLimit)
}
