// Package guard implements the uniqueness guard shared by submissions and attendance:
// a friendly pre-check on the natural key followed by an insert that the store backs
// with a uniqueness constraint. Both paths yield the same DuplicateEntry error.
package guard

import (
	"context"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/metrics"
)

const (
	stagePrecheck   = "precheck"
	stageConstraint = "constraint"
)

// Key describes one natural key check.
type Key struct {
	Entity string
	// Exists reports whether a record with the natural key is already stored.
	Exists func(ctx context.Context) (bool, error)
	// Duplicate is returned when the key is taken.
	Duplicate *apperr.Error
}

// Insert runs the pre-check and then insert. A concurrent insert that slips past the
// pre-check is rejected by the store and reported as the same Duplicate error.
func Insert(ctx context.Context, k Key, insert func(ctx context.Context) error) error {
	exists, err := k.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		metrics.DuplicateRejections.WithLabelValues(k.Entity, stagePrecheck).Inc()
		return k.Duplicate
	}
	if err := insert(ctx); err != nil {
		if apperr.KindOf(err) == apperr.KindDuplicateEntry {
			metrics.DuplicateRejections.WithLabelValues(k.Entity, stageConstraint).Inc()
			return k.Duplicate
		}
		return err
	}
	return nil
}
