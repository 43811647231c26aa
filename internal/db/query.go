package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Spok95/hackathon-portal/internal/store"
)

// where accumulates AND-ed conditions written with ? placeholders.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func limitClause(p store.Page) string {
	if p.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, p.Offset)
}

// bind expands slice arguments (IN lists) and rebinds ? into the driver's placeholders.
func (s *Store) bind(q string, args []any) (string, []any, error) {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, err
	}
	return s.db.Rebind(q), args, nil
}

func (s *Store) selectq(ctx context.Context, dest any, q string, args []any) error {
	q, args, err := s.bind(q, args)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, q, args...)
}

func (s *Store) count(ctx context.Context, q string, args []any) (int, error) {
	q, args, err := s.bind(q, args)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, err
	}
	return n, nil
}
