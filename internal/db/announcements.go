package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const announcementColumns = `id, title, content, priority, is_active, target_audience, created_by, created_at, updated_at, expires_at`

const priorityOrder = `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END`

func (s *Store) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr(err, "announcement", "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO announcements (`+announcementColumns+`)
		VALUES (:id, :title, :content, :priority, :is_active, :target_audience, :created_by, :created_at, :updated_at, :expires_at)`, a); err != nil {
		return mapErr(err, "announcement", "create announcement")
	}
	for _, att := range a.Attachments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO announcement_attachments (announcement_id, filename, url, uploaded_at)
			VALUES ($1, $2, $3, $4)`, a.ID, att.Filename, att.URL, att.UploadedAt); err != nil {
			return mapErr(err, "announcement", "create attachment")
		}
	}
	return mapErr(tx.Commit(), "announcement", "commit announcement")
}

func (s *Store) GetAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var a models.Announcement
	if err := s.db.GetContext(ctx, &a, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "announcement", "get announcement")
	}
	if err := s.db.SelectContext(ctx, &a.Attachments, `
		SELECT filename, url, uploaded_at FROM announcement_attachments
		WHERE announcement_id = $1 ORDER BY id`, id); err != nil {
		return nil, mapErr(err, "announcement", "list attachments")
	}
	if err := s.db.SelectContext(ctx, &a.ReadBy, `
		SELECT user_id, read_at FROM announcement_reads
		WHERE announcement_id = $1 ORDER BY read_at, user_id`, id); err != nil {
		return nil, mapErr(err, "announcement", "list receipts")
	}
	return &a, nil
}

func announcementWhere(f store.AnnouncementFilter) *where {
	w := &where{}
	if f.Priority != "" {
		w.add("priority = ?", string(f.Priority))
	}
	if len(f.Audiences) > 0 {
		w.add("target_audience IN (?)", f.Audiences)
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	if !f.NotExpiredAt.IsZero() {
		w.add("(expires_at IS NULL OR expires_at > ?)", f.NotExpiredAt)
	}
	if f.UnreadBy != nil {
		w.add(`NOT EXISTS (SELECT 1 FROM announcement_reads r WHERE r.announcement_id = announcements.id AND r.user_id = ?)`, *f.UnreadBy)
	}
	return w
}

// ListAnnouncements orders by priority then newest first and loads attachments in one query.
func (s *Store) ListAnnouncements(ctx context.Context, f store.AnnouncementFilter) ([]models.Announcement, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := announcementWhere(f)
	total, err := s.count(ctx, `SELECT COUNT(*) FROM announcements`+w.String(), w.args)
	if err != nil {
		return nil, 0, mapErr(err, "announcement", "count announcements")
	}
	var out []models.Announcement
	q := `SELECT ` + announcementColumns + ` FROM announcements` + w.String() +
		` ORDER BY ` + priorityOrder + ` DESC, created_at DESC, id` + limitClause(f.Page)
	if err := s.selectq(ctx, &out, q, w.args); err != nil {
		return nil, 0, mapErr(err, "announcement", "list announcements")
	}
	if len(out) == 0 {
		return out, total, nil
	}

	ids := make([]uuid.UUID, len(out))
	idx := make(map[uuid.UUID]int, len(out))
	for i, a := range out {
		ids[i] = a.ID
		idx[a.ID] = i
	}
	var atts []struct {
		AnnouncementID uuid.UUID `db:"announcement_id"`
		models.Attachment
	}
	if err := s.selectq(ctx, &atts, `
		SELECT announcement_id, filename, url, uploaded_at FROM announcement_attachments
		WHERE announcement_id IN (?) ORDER BY id`, []any{ids}); err != nil {
		return nil, 0, mapErr(err, "announcement", "list attachments")
	}
	for _, att := range atts {
		i := idx[att.AnnouncementID]
		out[i].Attachments = append(out[i].Attachments, att.Attachment)
	}
	return out, total, nil
}

func (s *Store) CountAnnouncements(ctx context.Context, f store.AnnouncementFilter) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := announcementWhere(f)
	n, err := s.count(ctx, `SELECT COUNT(*) FROM announcements`+w.String(), w.args)
	if err != nil {
		return 0, mapErr(err, "announcement", "count announcements")
	}
	return n, nil
}

func (s *Store) UpdateAnnouncement(ctx context.Context, a *models.Announcement) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE announcements SET
			title = :title, content = :content, priority = :priority, is_active = :is_active,
			target_audience = :target_audience, expires_at = :expires_at, updated_at = :updated_at
		WHERE id = :id`, a)
	if err != nil {
		return mapErr(err, "announcement", "update announcement")
	}
	return affected(res, "announcement")
}

func (s *Store) AddAttachments(ctx context.Context, id uuid.UUID, atts []models.Attachment) error {
	if len(atts) == 0 {
		return nil
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr(err, "announcement", "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, s.db.Rebind(`
		INSERT INTO announcement_attachments (announcement_id, filename, url, uploaded_at)
		VALUES (?, ?, ?, ?)`))
	if err != nil {
		return mapErr(err, "announcement", "prepare attachment insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, att := range atts {
		if _, err := stmt.ExecContext(ctx, id, att.Filename, att.URL, att.UploadedAt); err != nil {
			return mapErr(err, "announcement", "add attachment")
		}
	}
	return mapErr(tx.Commit(), "announcement", "commit attachments")
}

func (s *Store) DeleteAnnouncement(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "announcement", "delete announcement")
	}
	return affected(res, "announcement")
}

// MarkRead relies on the (announcement_id, user_id) primary key; repeats are no-ops.
func (s *Store) MarkRead(ctx context.Context, announcementID, userID uuid.UUID, at time.Time) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO announcement_reads (announcement_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (announcement_id, user_id) DO NOTHING`, announcementID, userID, at)
	if err != nil {
		return false, mapErr(err, "announcement", "mark read")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListReadReceipts(ctx context.Context, announcementID uuid.UUID) ([]models.ReadReceipt, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var out []models.ReadReceipt
	if err := s.db.SelectContext(ctx, &out, `
		SELECT user_id, read_at FROM announcement_reads
		WHERE announcement_id = $1 ORDER BY read_at, user_id`, announcementID); err != nil {
		return nil, mapErr(err, "announcement", "list receipts")
	}
	return out, nil
}
