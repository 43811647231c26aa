package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const attendanceColumns = `id, user_id, date, session, status, marked_at, marked_by, remarks`

func (s *Store) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES (:id, :user_id, :date, :session, :status, :marked_at, :marked_by, :remarks)`, a)
	return mapErr(err, "attendance", "create attendance")
}

func (s *Store) AttendanceExists(ctx context.Context, userID uuid.UUID, date time.Time, session models.Session) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM attendance WHERE user_id = $1 AND date = $2::date AND session = $3)`,
		userID, date, string(session))
	if err != nil {
		return false, mapErr(err, "attendance", "check attendance")
	}
	return exists, nil
}

func (s *Store) GetAttendance(ctx context.Context, id uuid.UUID) (*models.Attendance, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var a models.Attendance
	if err := s.db.GetContext(ctx, &a, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "attendance", "get attendance")
	}
	return &a, nil
}

func attendanceWhere(f store.AttendanceFilter) *where {
	w := &where{}
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if !f.From.IsZero() {
		w.add("date >= ?::date", f.From)
	}
	if !f.To.IsZero() {
		w.add("date <= ?::date", f.To)
	}
	if f.Session != "" {
		w.add("session = ?", string(f.Session))
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	return w
}

func (s *Store) ListAttendance(ctx context.Context, f store.AttendanceFilter) ([]models.Attendance, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := attendanceWhere(f)
	total, err := s.count(ctx, `SELECT COUNT(*) FROM attendance`+w.String(), w.args)
	if err != nil {
		return nil, 0, mapErr(err, "attendance", "count attendance")
	}
	var out []models.Attendance
	q := `SELECT ` + attendanceColumns + ` FROM attendance` + w.String() +
		` ORDER BY date DESC, marked_at DESC, id` + limitClause(f.Page)
	if err := s.selectq(ctx, &out, q, w.args); err != nil {
		return nil, 0, mapErr(err, "attendance", "list attendance")
	}
	return out, total, nil
}

func (s *Store) UpdateAttendance(ctx context.Context, a *models.Attendance) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE attendance SET status = :status, remarks = :remarks, marked_by = :marked_by, marked_at = :marked_at
		WHERE id = :id`, a)
	if err != nil {
		return mapErr(err, "attendance", "update attendance")
	}
	return affected(res, "attendance")
}

func (s *Store) DeleteAttendance(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "attendance", "delete attendance")
	}
	return affected(res, "attendance")
}

func (s *Store) AttendanceCounts(ctx context.Context, f store.AttendanceFilter) ([]store.AttendanceCount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := attendanceWhere(f)
	var out []store.AttendanceCount
	q := `
		SELECT user_id, date, status, COUNT(*) AS count
		FROM attendance` + w.String() + `
		GROUP BY user_id, date, status
		ORDER BY date ASC, user_id, status`
	if err := s.selectq(ctx, &out, q, w.args); err != nil {
		return nil, mapErr(err, "attendance", "attendance counts")
	}
	return out, nil
}
