package announcements

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/metrics"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func New(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: logging.Named(log, "announcements"), now: time.Now}
}

type ReadStats struct {
	TotalTargetUsers int     `json:"totalTargetUsers"`
	ReadCount        int     `json:"readCount"`
	UnreadCount      int     `json:"unreadCount"`
	ReadPercentage   float64 `json:"readPercentage"`
}

func requireAdmin(c models.Caller) error {
	if !c.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

func bucket(c models.Caller) (models.Audience, error) {
	b, ok := models.BucketOf(c.Role)
	if !ok {
		return "", apperr.Forbidden("role has no announcement audience")
	}
	return b, nil
}

// visibleFilter is the storage form of Announcement.VisibleTo.
func visibleFilter(b models.Audience, now time.Time) store.AnnouncementFilter {
	return store.AnnouncementFilter{
		Audiences:    []models.Audience{models.AudienceAll, b},
		Active:       store.Bool(true),
		NotExpiredAt: now,
	}
}

func (s *Service) Create(ctx context.Context, caller models.Caller, in models.NewAnnouncement) (*models.Announcement, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a := &models.Announcement{
		ID:             uuid.New(),
		Title:          in.Title,
		Content:        in.Content,
		Priority:       in.Priority,
		IsActive:       true,
		TargetAudience: in.TargetAudience,
		CreatedBy:      caller.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      in.ExpiresAt,
		Attachments:    stamp(in.Attachments, now),
	}
	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}
	if a.TargetAudience == "" {
		a.TargetAudience = models.AudienceAll
	}
	if err := s.store.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("announcement created",
		zap.String("announcement_id", a.ID.String()),
		zap.String("priority", string(a.Priority)),
		zap.String("audience", string(a.TargetAudience)),
	)
	return a, nil
}

func stamp(atts []models.Attachment, now time.Time) []models.Attachment {
	out := make([]models.Attachment, len(atts))
	for i, at := range atts {
		if at.UploadedAt.IsZero() {
			at.UploadedAt = now
		}
		out[i] = at
	}
	return out
}

// Update applies a patch; attachments in the patch are appended to the existing ones.
func (s *Service) Update(ctx context.Context, caller models.Caller, id uuid.UUID, p models.AnnouncementPatch) (*models.Announcement, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := models.Validate(p); err != nil {
		return nil, err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p.Apply(a)
	a.UpdatedAt = now
	if err := s.store.UpdateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	if len(p.Attachments) > 0 {
		if err := s.store.AddAttachments(ctx, id, stamp(p.Attachments, now)); err != nil {
			return nil, err
		}
	}
	return s.store.GetAnnouncement(ctx, id)
}

func (s *Service) Toggle(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Announcement, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	a.IsActive = !a.IsActive
	a.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("announcement toggled", zap.String("announcement_id", id.String()), zap.Bool("active", a.IsActive))
	return a, nil
}

func (s *Service) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.store.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.log.Info("announcement deleted", zap.String("announcement_id", id.String()))
	return nil
}

// List is the unfiltered admin view.
func (s *Service) List(ctx context.Context, caller models.Caller, f store.AnnouncementFilter) ([]models.Announcement, int, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, 0, err
	}
	return s.store.ListAnnouncements(ctx, f)
}

// VisibleTo lists what the caller can see at now, most important and newest first.
// Participants get a read receipt for every announcement returned.
func (s *Service) VisibleTo(ctx context.Context, caller models.Caller, now time.Time) ([]models.Announcement, error) {
	ctx = ctxutil.WithOp(ctx, "announcements.VisibleTo")
	b, err := bucket(caller)
	if err != nil {
		return nil, err
	}
	list, _, err := s.store.ListAnnouncements(ctx, visibleFilter(b, now))
	if err != nil {
		return nil, err
	}
	if caller.IsParticipant() {
		for _, a := range list {
			if err := s.markRead(ctx, a.ID, caller.UserID, now); err != nil {
				return nil, err
			}
		}
	}
	return list, nil
}

// Get returns one announcement. Participants only get what passes the visibility
// check, and reading it records a receipt.
func (s *Service) Get(ctx context.Context, caller models.Caller, id uuid.UUID, now time.Time) (*models.Announcement, error) {
	b, err := bucket(caller)
	if err != nil {
		return nil, err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() {
		return a, nil
	}
	if !a.VisibleTo(b, now) {
		return nil, apperr.Forbidden("access denied to this announcement")
	}
	if err := s.markRead(ctx, a.ID, caller.UserID, now); err != nil {
		return nil, err
	}
	// receipts of other participants are admin-only
	a.ReadBy = nil
	return a, nil
}

// MarkRead records that the caller read a visible announcement. Repeating it is a no-op.
func (s *Service) MarkRead(ctx context.Context, caller models.Caller, id uuid.UUID, now time.Time) error {
	b, err := bucket(caller)
	if err != nil {
		return err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	if !a.VisibleTo(b, now) {
		return apperr.Forbidden("access denied to this announcement")
	}
	return s.markRead(ctx, id, caller.UserID, now)
}

func (s *Service) markRead(ctx context.Context, annID, userID uuid.UUID, now time.Time) error {
	inserted, err := s.store.MarkRead(ctx, annID, userID, now.UTC())
	if err != nil {
		return err
	}
	if inserted {
		metrics.ReadReceipts.Inc()
		logging.FromContext(ctx, s.log).Debug("announcement read",
			zap.String("announcement_id", annID.String()),
			zap.String("user_id", userID.String()),
		)
	}
	return nil
}

// UnreadCount counts visible announcements the caller has no receipt for.
func (s *Service) UnreadCount(ctx context.Context, caller models.Caller, now time.Time) (int, error) {
	b, err := bucket(caller)
	if err != nil {
		return 0, err
	}
	f := visibleFilter(b, now)
	f.UnreadBy = store.ID(caller.UserID)
	return s.store.CountAnnouncements(ctx, f)
}

// ReadStatistics compares distinct readers against the active users in the target audience.
func (s *Service) ReadStatistics(ctx context.Context, caller models.Caller, id uuid.UUID) (*ReadStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	a, err := s.store.GetAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	target, err := s.store.CountUsers(ctx, store.UserFilter{Roles: models.RolesOf(a.TargetAudience), ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	receipts, err := s.store.ListReadReceipts(ctx, id)
	if err != nil {
		return nil, err
	}
	return readStats(target, len(receipts)), nil
}

func readStats(target, read int) *ReadStats {
	st := &ReadStats{TotalTargetUsers: target, ReadCount: read, UnreadCount: max(target-read, 0)}
	if target > 0 {
		st.ReadPercentage = math.Round(float64(read)/float64(target)*10000) / 100
	}
	return st
}
