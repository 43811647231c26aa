package models

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; higher is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Audience string

const (
	AudienceAll          Audience = "all"
	AudienceParticipants Audience = "participants"
	AudienceAdmins       Audience = "admins"
)

// BucketOf maps a role to its audience bucket. ok is false for roles outside both buckets.
func BucketOf(r Role) (Audience, bool) {
	switch r {
	case Participant:
		return AudienceParticipants, true
	case Admin, Superadmin:
		return AudienceAdmins, true
	}
	return "", false
}

// RolesOf lists the roles an audience targets.
func RolesOf(a Audience) []Role {
	switch a {
	case AudienceParticipants:
		return []Role{Participant}
	case AudienceAdmins:
		return []Role{Admin, Superadmin}
	}
	return nil
}

type Attachment struct {
	Filename   string    `db:"filename" json:"filename" validate:"required,max=255"`
	URL        string    `db:"url" json:"url" validate:"required,url"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploadedAt"`
}

type ReadReceipt struct {
	UserID uuid.UUID `db:"user_id" json:"user"`
	ReadAt time.Time `db:"read_at" json:"readAt"`
}

type Announcement struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	Title          string        `db:"title" json:"title"`
	Content        string        `db:"content" json:"content"`
	Priority       Priority      `db:"priority" json:"priority"`
	IsActive       bool          `db:"is_active" json:"isActive"`
	TargetAudience Audience      `db:"target_audience" json:"targetAudience"`
	CreatedBy      uuid.UUID     `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
	ExpiresAt      *time.Time    `db:"expires_at" json:"expiresAt,omitempty"`
	Attachments    []Attachment  `db:"-" json:"attachments"`
	ReadBy         []ReadReceipt `db:"-" json:"readBy,omitempty"`
}

func (a Announcement) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// VisibleTo is the visibility predicate: active, not expired, and aimed at the bucket.
func (a Announcement) VisibleTo(bucket Audience, now time.Time) bool {
	if !a.IsActive || a.IsExpired(now) {
		return false
	}
	return a.TargetAudience == AudienceAll || a.TargetAudience == bucket
}

type NewAnnouncement struct {
	Title          string       `json:"title" validate:"required,max=200"`
	Content        string       `json:"content" validate:"required,max=10000"`
	Priority       Priority     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	TargetAudience Audience     `json:"targetAudience" validate:"omitempty,oneof=all participants admins"`
	ExpiresAt      *time.Time   `json:"expiresAt"`
	Attachments    []Attachment `json:"attachments" validate:"dive"`
}

type AnnouncementPatch struct {
	Title          *string      `json:"title" validate:"omitempty,max=200"`
	Content        *string      `json:"content" validate:"omitempty,max=10000"`
	Priority       *Priority    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	TargetAudience *Audience    `json:"targetAudience" validate:"omitempty,oneof=all participants admins"`
	ExpiresAt      *time.Time   `json:"expiresAt"`
	ClearExpiry    bool         `json:"clearExpiry"`
	IsActive       *bool        `json:"isActive"`
	Attachments    []Attachment `json:"attachments" validate:"dive"`
}

func (p AnnouncementPatch) Apply(a *Announcement) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.TargetAudience != nil {
		a.TargetAudience = *p.TargetAudience
	}
	if p.ExpiresAt != nil {
		a.ExpiresAt = p.ExpiresAt
	}
	if p.ClearExpiry {
		a.ExpiresAt = nil
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
}
