package db

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Spok95/hackathon-portal/internal/apperr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// pgError extracts SQLSTATE and constraint from either driver's error type.
func pgError(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}
	return "", ""
}

func duplicateFor(constraint string) *apperr.Error {
	switch constraint {
	case "users_email_key":
		return apperr.Duplicate("email", "a user with this email already exists")
	case "submissions_user_task_key":
		return apperr.Duplicate("task", "you have already submitted this task")
	case "attendance_user_date_session_key":
		return apperr.Duplicate("session", "attendance already marked for this session today")
	case "announcement_reads_pkey":
		return apperr.Duplicate("announcement", "announcement already marked as read")
	}
	return apperr.Duplicate(constraint, "duplicate entry")
}

// missingFor names the parent an insert referenced but could not find.
func missingFor(constraint string) *apperr.Error {
	switch constraint {
	case "announcement_reads_announcement_id_fkey":
		return apperr.NotFound("announcement")
	case "announcement_reads_user_id_fkey":
		return apperr.NotFound("user")
	}
	return nil
}

// mapErr turns driver errors into apperr kinds; anything else is wrapped with op.
func mapErr(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(entity)
	}
	switch code, constraint := pgError(err); code {
	case codeUniqueViolation:
		return duplicateFor(constraint)
	case codeForeignKeyViolation:
		if e := missingFor(constraint); e != nil {
			return e
		}
		return apperr.Conflict(entity + " references a missing record or is still referenced")
	case codeCheckViolation:
		return apperr.Invalid(constraint, entity+" violates "+constraint)
	}
	return errors.Wrap(err, op)
}

// affected converts a zero-row update into NotFound.
func affected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity)
	}
	return nil
}
