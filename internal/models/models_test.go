package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hackathon-portal/internal/apperr"
)

func TestCheckContent(t *testing.T) {
	cases := []struct {
		name  string
		c     Content
		field string
	}{
		{"nil", nil, "submissionType"},
		{"file without url", FileContent{Name: "a.zip", Size: 10}, "fileUrl"},
		{"file without name", FileContent{URL: "https://x.io/a.zip"}, "fileName"},
		{"negative size", FileContent{URL: "https://x.io/a.zip", Name: "a.zip", Size: -1}, "fileSize"},
		{"empty link", LinkContent{URL: "  "}, "link"},
		{"bad link", LinkContent{URL: "github dot com"}, "link"},
		{"blank text", TextContent{Text: "\n\t"}, "text"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := CheckContent(c.c)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			assert.Equal(t, c.field, ae.Field)
		})
	}

	assert.NoError(t, CheckContent(FileContent{URL: "https://x.io/a.zip", Name: "a.zip"}))
	assert.NoError(t, CheckContent(LinkContent{URL: "https://github.com/team/repo"}))
	assert.NoError(t, CheckContent(TextContent{Text: "our pitch"}))
}

func TestSubmissionCountsTowardTotal(t *testing.T) {
	score := 10
	assert.True(t, Submission{Status: StatusGraded, Score: &score}.CountsTowardTotal())
	assert.False(t, Submission{Status: StatusGraded}.CountsTowardTotal())
	assert.False(t, Submission{Status: StatusReturned, Score: &score}.CountsTowardTotal())
	assert.Equal(t, SubmissionType(""), Submission{}.Type())
}

func TestAnnouncementVisibleTo(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	a := Announcement{IsActive: true, TargetAudience: AudienceAll}
	assert.True(t, a.VisibleTo(AudienceParticipants, now))
	assert.True(t, a.VisibleTo(AudienceAdmins, now))

	a.ExpiresAt = &past
	assert.False(t, a.VisibleTo(AudienceParticipants, now), "expired is hidden from everyone")
	assert.False(t, a.VisibleTo(AudienceAdmins, now))
	a.ExpiresAt = &now
	assert.True(t, a.IsExpired(now))
	a.ExpiresAt = &future
	assert.True(t, a.VisibleTo(AudienceAdmins, now))

	p := Announcement{IsActive: true, TargetAudience: AudienceParticipants}
	assert.False(t, p.VisibleTo(AudienceAdmins, now))
	assert.True(t, p.VisibleTo(AudienceParticipants, now))

	p.IsActive = false
	assert.False(t, p.VisibleTo(AudienceParticipants, now))
}

func TestBucketsAndRoles(t *testing.T) {
	b, ok := BucketOf(Superadmin)
	assert.True(t, ok)
	assert.Equal(t, AudienceAdmins, b)
	_, ok = BucketOf("judge")
	assert.False(t, ok)

	assert.Equal(t, []Role{Admin, Superadmin}, RolesOf(AudienceAdmins))
	assert.Nil(t, RolesOf(AudienceAll))
	assert.Greater(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Zero(t, Priority("whatever").Rank())
}

func TestDateOf(t *testing.T) {
	at := time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), DateOf(at, nil))
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), DateOf(at, tokyo))
}

func TestAttendanceBreakdown(t *testing.T) {
	var b AttendanceBreakdown
	assert.Zero(t, b.Rate)
	b.Add(Present, 3)
	b.Add(Late, 1)
	b.Add("excused", 5)
	b.Add(Absent, 4)
	assert.Equal(t, AttendanceBreakdown{Present: 3, Absent: 4, Late: 1, Total: 8, Rate: 0.375}, b)
}

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(NewTask{Title: "", Description: "d", MaxScore: 0, Deadline: time.Now()})
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "is required", ae.Fields["title"])
	assert.Equal(t, "must be greater than 0", ae.Fields["maxScore"])

	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestTaskPatchApply(t *testing.T) {
	task := Task{Title: "old", MaxScore: 10, IsActive: true}
	title, max, off := "new", 20, false
	TaskPatch{Title: &title, MaxScore: &max, IsActive: &off}.Apply(&task)
	assert.Equal(t, Task{Title: "new", MaxScore: 20, IsActive: false}, task)

	deadline := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Task{Deadline: deadline}.IsOverdue(deadline.Add(time.Second)))
	assert.False(t, Task{Deadline: deadline}.IsOverdue(deadline))
}
