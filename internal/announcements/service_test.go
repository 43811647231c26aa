package announcements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/db/memdb"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
	"github.com/Spok95/hackathon-portal/internal/testutil/seed"
)

type fixture struct {
	st    *memdb.DB
	svc   *Service
	admin models.Caller
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memdb.Open()
	f := &fixture{st: st, svc: New(st, zap.NewNop()), admin: seed.Admin(t, st), clock: seed.Epoch}
	// every Create gets a later timestamp
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func (f *fixture) create(t *testing.T, title string, prio models.Priority, aud models.Audience, expires *time.Time) *models.Announcement {
	t.Helper()
	a, err := f.svc.Create(context.Background(), f.admin, models.NewAnnouncement{
		Title: title, Content: title + " body", Priority: prio, TargetAudience: aud, ExpiresAt: expires,
	})
	require.NoError(t, err)
	return a
}

func titles(list []models.Announcement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Title)
	}
	return out
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "welcome", "", "", nil)
	assert.Equal(t, models.PriorityMedium, a.Priority)
	assert.Equal(t, models.AudienceAll, a.TargetAudience)
	assert.True(t, a.IsActive)

	p := seed.Participant(t, f.st, "p")
	_, err := f.svc.Create(context.Background(), p, models.NewAnnouncement{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.svc.Create(context.Background(), f.admin, models.NewAnnouncement{
		Title: "x", Content: "y", Attachments: []models.Attachment{{Filename: "a.pdf", URL: "nope"}},
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestVisibleTo_ScopingAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seed.Participant(t, f.st, "p")
	now := seed.Epoch.Add(time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	f.create(t, "all-low", models.PriorityLow, models.AudienceAll, nil)
	f.create(t, "participants-urgent", models.PriorityUrgent, models.AudienceParticipants, &tomorrow)
	f.create(t, "admins-high", models.PriorityHigh, models.AudienceAdmins, nil)
	f.create(t, "all-expired", models.PriorityUrgent, models.AudienceAll, &yesterday)
	f.create(t, "all-medium-newer", models.PriorityMedium, models.AudienceAll, nil)
	off := f.create(t, "all-inactive", models.PriorityHigh, models.AudienceAll, nil)
	_, err := f.svc.Toggle(ctx, f.admin, off.ID)
	require.NoError(t, err)

	list, err := f.svc.VisibleTo(ctx, p, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"participants-urgent", "all-medium-newer", "all-low"}, titles(list))

	list, err = f.svc.VisibleTo(ctx, f.admin, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"admins-high", "all-medium-newer", "all-low"}, titles(list))

	_, err = f.svc.VisibleTo(ctx, models.Caller{UserID: uuid.New(), Role: "guest"}, now)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestVisibleTo_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	p := seed.Participant(t, f.st, "p")
	at := seed.Epoch.Add(6 * time.Hour)
	f.create(t, "edge", models.PriorityLow, models.AudienceAll, &at)

	list, err := f.svc.VisibleTo(context.Background(), p, at.Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.svc.VisibleTo(context.Background(), p, at)
	require.NoError(t, err)
	assert.Empty(t, list, "expiresAt == now is expired")
}

func TestReadReceipts_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seed.Participant(t, f.st, "p")
	a := f.create(t, "news", models.PriorityMedium, models.AudienceAll, nil)
	now := seed.Epoch.Add(time.Hour)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.svc.MarkRead(ctx, p, a.ID, now.Add(time.Duration(i)*time.Minute)))
	}
	_, err := f.svc.VisibleTo(ctx, p, now)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, p, a.ID, now)
	require.NoError(t, err)

	receipts, err := f.st.ListReadReceipts(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, p.UserID, receipts[0].UserID)
	assert.Equal(t, now, receipts[0].ReadAt, "first read wins")
}

func TestVisibleTo_RecordsReceiptsForParticipantsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seed.Participant(t, f.st, "p")
	f.create(t, "one", models.PriorityLow, models.AudienceAll, nil)
	f.create(t, "two", models.PriorityLow, models.AudienceParticipants, nil)
	now := seed.Epoch.Add(time.Hour)

	unread, err := f.svc.UnreadCount(ctx, p, now)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	_, err = f.svc.VisibleTo(ctx, f.admin, now)
	require.NoError(t, err)
	adminUnread, err := f.svc.UnreadCount(ctx, f.admin, now)
	require.NoError(t, err)
	assert.Equal(t, 1, adminUnread, "admins only see the all-audience one and get no receipt")

	_, err = f.svc.VisibleTo(ctx, p, now)
	require.NoError(t, err)
	unread, err = f.svc.UnreadCount(ctx, p, now)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestGet_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seed.Participant(t, f.st, "p")
	now := seed.Epoch.Add(time.Hour)
	adminsOnly := f.create(t, "staff", models.PriorityHigh, models.AudienceAdmins, nil)
	public := f.create(t, "public", models.PriorityHigh, models.AudienceAll, nil)

	_, err := f.svc.Get(ctx, p, adminsOnly.ID, now)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.svc.MarkRead(ctx, p, adminsOnly.ID, now), apperr.ErrForbidden)

	got, err := f.svc.Get(ctx, f.admin, adminsOnly.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "staff", got.Title)

	got, err = f.svc.Get(ctx, p, public.ID, now)
	require.NoError(t, err)
	assert.Nil(t, got.ReadBy)

	_, err = f.svc.Get(ctx, p, uuid.New(), now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReadStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := seed.Epoch.Add(time.Hour)
	var ps []models.Caller
	for i := 0; i < 3; i++ {
		ps = append(ps, seed.Participant(t, f.st, "p"))
	}
	inactive := seed.Participant(t, f.st, "gone")
	require.NoError(t, f.st.SetUserActive(ctx, inactive.UserID, false))

	a := f.create(t, "teams", models.PriorityHigh, models.AudienceParticipants, nil)
	require.NoError(t, f.svc.MarkRead(ctx, ps[0], a.ID, now))
	require.NoError(t, f.svc.MarkRead(ctx, ps[0], a.ID, now))

	st, err := f.svc.ReadStatistics(ctx, f.admin, a.ID)
	require.NoError(t, err)
	assert.Equal(t, &ReadStats{TotalTargetUsers: 3, ReadCount: 1, UnreadCount: 2, ReadPercentage: 33.33}, st)

	all := f.create(t, "everyone", models.PriorityLow, models.AudienceAll, nil)
	st, err = f.svc.ReadStatistics(ctx, f.admin, all.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalTargetUsers, "three participants and the admin")

	_, err = f.svc.ReadStatistics(ctx, ps[1], a.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestReadStats_Clamped(t *testing.T) {
	// receipts from users who later left the audience can exceed the target
	st := readStats(2, 3)
	assert.Zero(t, st.UnreadCount)
	assert.Equal(t, 150.0, st.ReadPercentage)

	assert.Equal(t, &ReadStats{}, readStats(0, 0))
}

func TestUpdateAppendsAttachments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, err := f.svc.Create(ctx, f.admin, models.NewAnnouncement{
		Title: "kit", Content: "downloads",
		Attachments: []models.Attachment{{Filename: "rules.pdf", URL: "https://cdn.example.com/rules.pdf"}},
	})
	require.NoError(t, err)

	title := "starter kit"
	upd, err := f.svc.Update(ctx, f.admin, a.ID, models.AnnouncementPatch{
		Title:       &title,
		Attachments: []models.Attachment{{Filename: "api.md", URL: "https://cdn.example.com/api.md"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "starter kit", upd.Title)
	require.Len(t, upd.Attachments, 2)
	assert.Equal(t, "rules.pdf", upd.Attachments[0].Filename)
	assert.Equal(t, "api.md", upd.Attachments[1].Filename)
	assert.False(t, upd.Attachments[1].UploadedAt.IsZero())
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seed.Participant(t, f.st, "p")
	a := f.create(t, "one", models.PriorityUrgent, models.AudienceAll, nil)
	f.create(t, "two", models.PriorityLow, models.AudienceAdmins, nil)

	_, _, err := f.svc.List(ctx, p, store.AnnouncementFilter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	list, total, err := f.svc.List(ctx, f.admin, store.AnnouncementFilter{Priority: models.PriorityUrgent})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"one"}, titles(list))

	require.NoError(t, f.svc.Delete(ctx, f.admin, a.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, a.ID), apperr.ErrNotFound)
}
