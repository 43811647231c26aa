package scoring

import (
	"context"
	"sort"

	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const DefaultLeaderboardLimit = 10

// Leaderboard ranks active participants by their stored total score. It reads
// totals as-is and never triggers aggregation.
type Leaderboard struct {
	store        store.Store
	defaultLimit int
}

func NewLeaderboard(st store.Store, defaultLimit int) *Leaderboard {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLeaderboardLimit
	}
	return &Leaderboard{store: st, defaultLimit: defaultLimit}
}

// Top returns up to limit entries (the default when limit <= 0). Ranks are positional
// and start at 1; equal totals keep storage order and still get distinct ranks.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = l.defaultLimit
	}
	return l.list(ctx, limit)
}

// All ranks every active participant.
func (l *Leaderboard) All(ctx context.Context) ([]models.LeaderboardEntry, error) {
	return l.list(ctx, 0)
}

func (l *Leaderboard) list(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	users, err := l.store.ListLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].TotalScore > users[j].TotalScore })

	out := make([]models.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, models.LeaderboardEntry{
			Rank:       i + 1,
			UserID:     u.ID,
			Name:       u.Name,
			Email:      u.Email,
			TotalScore: u.TotalScore,
			JoinedAt:   u.CreatedAt,
		})
	}
	return out, nil
}
