package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/models"
)

// Page limits a listing; Limit <= 0 returns everything.
type Page struct {
	Limit  int
	Offset int
}

// PageOf converts 1-based page numbers into a Page.
func PageOf(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return Page{}
	}
	return Page{Limit: limit, Offset: (page - 1) * limit}
}

type UserFilter struct {
	Roles      []models.Role
	Search     string // substring of name or email, case-insensitive
	ActiveOnly bool
	Page
}

type TaskFilter struct {
	Type       models.TaskType
	Active     *bool
	ByDeadline bool // deadline asc instead of newest first
	Page
}

type SubmissionFilter struct {
	UserID *uuid.UUID
	TaskID *uuid.UUID
	Status models.SubmissionStatus
	Page
}

// AttendanceFilter bounds are calendar dates, both inclusive; zero means open.
type AttendanceFilter struct {
	UserID  *uuid.UUID
	From    time.Time
	To      time.Time
	Session models.Session
	Status  models.AttendanceStatus
	Page
}

type AnnouncementFilter struct {
	Priority  models.Priority
	Audiences []models.Audience
	Active    *bool
	// NotExpiredAt keeps announcements without expiry or expiring after it.
	NotExpiredAt time.Time
	UnreadBy     *uuid.UUID
	Page
}

type StatusCount struct {
	Status   models.SubmissionStatus `db:"status"`
	Count    int                     `db:"count"`
	Scored   int                     `db:"scored"`
	ScoreSum int                     `db:"score_sum"`
	MaxScore int                     `db:"max_score"`
}

type AttendanceCount struct {
	UserID uuid.UUID               `db:"user_id"`
	Date   time.Time               `db:"date"`
	Status models.AttendanceStatus `db:"status"`
	Count  int                     `db:"count"`
}

func Bool(v bool) *bool { return &v }

func ID(v uuid.UUID) *uuid.UUID { return &v }
