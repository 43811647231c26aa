package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/metrics"
	"github.com/Spok95/hackathon-portal/internal/observability"
	"github.com/Spok95/hackathon-portal/internal/store"
)

// Aggregator owns User.TotalScore. It always recomputes from the submissions and
// never adjusts the stored total incrementally.
type Aggregator struct {
	store store.Store
	log   *zap.Logger
	locks *userLocks
}

func NewAggregator(st store.Store, log *zap.Logger) *Aggregator {
	return &Aggregator{store: st, log: logging.Named(log, "scoring"), locks: newUserLocks()}
}

// Recompute sets the user's total to the sum of graded, non-null scores and returns it.
func (a *Aggregator) Recompute(ctx context.Context, userID uuid.UUID) (int, error) {
	unlock := a.locks.lock(userID)
	defer unlock()

	t0 := time.Now()
	defer func() { metrics.ObserveRecompute(time.Since(t0)) }()
	metrics.AggregationRuns.Inc()

	if _, err := a.store.GetUser(ctx, userID); err != nil {
		return 0, err
	}
	total, err := a.store.SumGradedScores(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := a.store.SetTotalScore(ctx, userID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// AfterWrite runs Recompute after a score-affecting write. On failure the write
// stands: the inconsistency is logged, counted and reported, and returned so the
// caller can flag the total as stale.
func (a *Aggregator) AfterWrite(ctx context.Context, userID uuid.UUID, op string) error {
	if _, err := a.Recompute(ctx, userID); err != nil {
		inc := apperr.Aggregation(userID, err)
		metrics.AggregationFailures.Inc()
		logging.FromContext(ctx, a.log).Error("total score recompute failed",
			zap.String("user_id", userID.String()),
			zap.String("trigger", op),
			zap.Error(err),
		)
		observability.CaptureWithTags(inc, map[string]string{
			"user_id": userID.String(),
			"trigger": op,
		})
		return inc
	}
	return nil
}

type RepairFailure struct {
	UserID uuid.UUID
	Err    error
}

type RepairReport struct {
	Users    int
	Repaired int // totals that changed
	Failed   []RepairFailure
}

// RecomputeAll backfills every user's total. Per-user failures are collected.
func (a *Aggregator) RecomputeAll(ctx context.Context) (*RepairReport, error) {
	users, _, err := a.store.ListUsers(ctx, store.UserFilter{})
	if err != nil {
		return nil, err
	}
	rep := &RepairReport{Users: len(users)}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		total, err := a.Recompute(ctx, u.ID)
		if err != nil {
			rep.Failed = append(rep.Failed, RepairFailure{UserID: u.ID, Err: err})
			a.log.Warn("recompute failed", zap.String("user_id", u.ID.String()), zap.Error(err))
			continue
		}
		if total != u.TotalScore {
			rep.Repaired++
			a.log.Info("total score repaired",
				zap.String("user_id", u.ID.String()),
				zap.Int("was", u.TotalScore),
				zap.Int("now", total),
			)
		}
	}
	return rep, nil
}
