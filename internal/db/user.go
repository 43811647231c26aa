package db

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const userColumns = `id, email, password_hash, name, role, is_active, total_score, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, is_active, total_score, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :name, :role, :is_active, :total_score, :created_at, :updated_at)`, u)
	return mapErr(err, "user", "create user")
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "user", "get user")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var u models.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, mapErr(err, "user", "get user by email")
	}
	return &u, nil
}

func userWhere(f store.UserFilter) *where {
	w := &where{}
	if len(f.Roles) > 0 {
		w.add("role IN (?)", f.Roles)
	}
	if f.ActiveOnly {
		w.add("is_active")
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + q + "%"
		w.add("(name ILIKE ? OR email ILIKE ?)", like, like)
	}
	return w
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter) ([]models.User, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := userWhere(f)
	total, err := s.count(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args)
	if err != nil {
		return nil, 0, mapErr(err, "user", "count users")
	}
	var users []models.User
	q := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY seq DESC` + limitClause(f.Page)
	if err := s.selectq(ctx, &users, q, w.args); err != nil {
		return nil, 0, mapErr(err, "user", "list users")
	}
	return users, total, nil
}

func (s *Store) CountUsers(ctx context.Context, f store.UserFilter) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := userWhere(f)
	n, err := s.count(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args)
	if err != nil {
		return 0, mapErr(err, "user", "count users")
	}
	return n, nil
}

func (s *Store) SetUserActive(ctx context.Context, id uuid.UUID, active bool) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return mapErr(err, "user", "set user active")
	}
	return affected(res, "user")
}

func (s *Store) SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
	if err != nil {
		return mapErr(err, "user", "set user role")
	}
	return affected(res, "user")
}

func (s *Store) SetTotalScore(ctx context.Context, id uuid.UUID, total int) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `UPDATE users SET total_score = $2 WHERE id = $1`, id, total)
	if err != nil {
		return mapErr(err, "user", "set total score")
	}
	return affected(res, "user")
}

func (s *Store) ListLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var users []models.User
	q := `SELECT ` + userColumns + ` FROM users
		WHERE is_active AND role = 'participant'
		ORDER BY total_score DESC, seq ASC` + limitClause(store.Page{Limit: limit})
	if err := s.db.SelectContext(ctx, &users, q); err != nil {
		return nil, mapErr(err, "user", "list leaderboard")
	}
	return users, nil
}
