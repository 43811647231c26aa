package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/scoring"
)

const RepairTotalsJob = "repair_totals"

// RepairTotals re-derives every total score, healing totals left stale by a failed
// recompute after a grade write.
func RepairTotals(agg *scoring.Aggregator, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		rep, err := agg.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		totalsRepaired.Add(float64(rep.Repaired))
		if rep.Repaired > 0 || len(rep.Failed) > 0 {
			log.Info("total score sweep",
				zap.Int("users", rep.Users),
				zap.Int("repaired", rep.Repaired),
				zap.Int("failed", len(rep.Failed)),
			)
		}
		if len(rep.Failed) > 0 {
			return fmt.Errorf("repair totals: %d of %d users failed", len(rep.Failed), rep.Users)
		}
		return nil
	}
}
