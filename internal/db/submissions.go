package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const submissionColumns = `id, user_id, task_id, submission_type, file_url, file_name, file_size, link, link_title,
	text_content, submitted_at, score, feedback, status, graded_by, graded_at, is_late`

// submissionRow flattens the content union into nullable columns.
type submissionRow struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	TaskID      uuid.UUID      `db:"task_id"`
	Type        string         `db:"submission_type"`
	FileURL     sql.NullString `db:"file_url"`
	FileName    sql.NullString `db:"file_name"`
	FileSize    sql.NullInt64  `db:"file_size"`
	Link        sql.NullString `db:"link"`
	LinkTitle   sql.NullString `db:"link_title"`
	Text        sql.NullString `db:"text_content"`
	SubmittedAt time.Time      `db:"submitted_at"`
	Score       sql.NullInt64  `db:"score"`
	Feedback    string         `db:"feedback"`
	Status      string         `db:"status"`
	GradedBy    *uuid.UUID     `db:"graded_by"`
	GradedAt    sql.NullTime   `db:"graded_at"`
	IsLate      bool           `db:"is_late"`
}

func toSubmissionRow(s *models.Submission) submissionRow {
	r := submissionRow{
		ID:          s.ID,
		UserID:      s.UserID,
		TaskID:      s.TaskID,
		Type:        string(s.Type()),
		SubmittedAt: s.SubmittedAt,
		Feedback:    s.Feedback,
		Status:      string(s.Status),
		GradedBy:    s.GradedBy,
		IsLate:      s.IsLate,
	}
	switch c := s.Content.(type) {
	case models.FileContent:
		r.FileURL = sql.NullString{String: c.URL, Valid: true}
		r.FileName = sql.NullString{String: c.Name, Valid: true}
		r.FileSize = sql.NullInt64{Int64: c.Size, Valid: true}
	case models.LinkContent:
		r.Link = sql.NullString{String: c.URL, Valid: true}
		r.LinkTitle = sql.NullString{String: c.Title, Valid: c.Title != ""}
	case models.TextContent:
		r.Text = sql.NullString{String: c.Text, Valid: true}
	}
	if s.Score != nil {
		r.Score = sql.NullInt64{Int64: int64(*s.Score), Valid: true}
	}
	if s.GradedAt != nil {
		r.GradedAt = sql.NullTime{Time: *s.GradedAt, Valid: true}
	}
	return r
}

func (r submissionRow) model() models.Submission {
	s := models.Submission{
		ID:          r.ID,
		UserID:      r.UserID,
		TaskID:      r.TaskID,
		SubmittedAt: r.SubmittedAt,
		Feedback:    r.Feedback,
		Status:      models.SubmissionStatus(r.Status),
		GradedBy:    r.GradedBy,
		IsLate:      r.IsLate,
	}
	switch models.SubmissionType(r.Type) {
	case models.SubmissionFile:
		s.Content = models.FileContent{URL: r.FileURL.String, Name: r.FileName.String, Size: r.FileSize.Int64}
	case models.SubmissionLink:
		s.Content = models.LinkContent{URL: r.Link.String, Title: r.LinkTitle.String}
	case models.SubmissionText:
		s.Content = models.TextContent{Text: r.Text.String}
	}
	if r.Score.Valid {
		v := int(r.Score.Int64)
		s.Score = &v
	}
	if r.GradedAt.Valid {
		t := r.GradedAt.Time
		s.GradedAt = &t
	}
	return s
}

func (s *Store) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES (:id, :user_id, :task_id, :submission_type, :file_url, :file_name, :file_size, :link, :link_title,
			:text_content, :submitted_at, :score, :feedback, :status, :graded_by, :graded_at, :is_late)`,
		toSubmissionRow(sub))
	return mapErr(err, "submission", "create submission")
}

func (s *Store) GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var r submissionRow
	if err := s.db.GetContext(ctx, &r, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "submission", "get submission")
	}
	sub := r.model()
	return &sub, nil
}

func (s *Store) SubmissionExists(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE user_id = $1 AND task_id = $2)`, userID, taskID)
	if err != nil {
		return false, mapErr(err, "submission", "check submission")
	}
	return exists, nil
}

func submissionWhere(f store.SubmissionFilter) *where {
	w := &where{}
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.TaskID != nil {
		w.add("task_id = ?", *f.TaskID)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	return w
}

func (s *Store) ListSubmissions(ctx context.Context, f store.SubmissionFilter) ([]models.Submission, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := submissionWhere(f)
	total, err := s.count(ctx, `SELECT COUNT(*) FROM submissions`+w.String(), w.args)
	if err != nil {
		return nil, 0, mapErr(err, "submission", "count submissions")
	}
	var rows []submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submissions` + w.String() + ` ORDER BY submitted_at DESC, id` + limitClause(f.Page)
	if err := s.selectq(ctx, &rows, q, w.args); err != nil {
		return nil, 0, mapErr(err, "submission", "list submissions")
	}
	out := make([]models.Submission, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, total, nil
}

func (s *Store) SaveGrade(ctx context.Context, id uuid.UUID, g models.Grade) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE submissions
		SET score = $2, feedback = $3, status = $4, graded_by = $5, graded_at = $6
		WHERE id = $1`,
		id, g.Score, g.Feedback, string(g.Status), g.GradedBy, g.GradedAt)
	if err != nil {
		return mapErr(err, "submission", "save grade")
	}
	return affected(res, "submission")
}

func (s *Store) DeleteSubmission(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "submission", "delete submission")
	}
	return affected(res, "submission")
}

func (s *Store) SumGradedScores(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var sum int
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(score), 0)
		FROM submissions
		WHERE user_id = $1 AND status = 'graded' AND score IS NOT NULL`, userID)
	if err != nil {
		return 0, mapErr(err, "submission", "sum graded scores")
	}
	return sum, nil
}

func (s *Store) SubmissionStats(ctx context.Context, f store.SubmissionFilter) ([]store.StatusCount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := submissionWhere(f)
	var stats []store.StatusCount
	q := `
		SELECT status,
		       COUNT(*) AS count,
		       COUNT(score) AS scored,
		       COALESCE(SUM(score), 0) AS score_sum,
		       COALESCE(MAX(score), 0) AS max_score
		FROM submissions` + w.String() + `
		GROUP BY status
		ORDER BY status`
	if err := s.selectq(ctx, &stats, q, w.args); err != nil {
		return nil, mapErr(err, "submission", "submission stats")
	}
	return stats, nil
}
