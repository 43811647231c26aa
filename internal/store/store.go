package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/models"
)

// Store is the persistence contract of the portal core. Implementations must enforce
// the natural-key uniqueness of users (email), submissions (user, task), attendance
// (user, date, session) and read receipts (announcement, user) themselves and report
// violations as apperr DuplicateEntry. Missing rows are apperr NotFound.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int, error)
	CountUsers(ctx context.Context, f UserFilter) (int, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool) error
	SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) error
	// SetTotalScore is reserved for the score aggregator.
	SetTotalScore(ctx context.Context, id uuid.UUID, total int) error
	// ListLeaderboard returns active participants by total score desc; ties keep
	// storage order. limit <= 0 means no limit.
	ListLeaderboard(ctx context.Context, limit int) ([]models.User, error)

	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]models.Task, int, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	// DeleteTask fails with apperr Conflict while submissions reference the task.
	DeleteTask(ctx context.Context, id uuid.UUID) error

	CreateSubmission(ctx context.Context, s *models.Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	SubmissionExists(ctx context.Context, userID, taskID uuid.UUID) (bool, error)
	ListSubmissions(ctx context.Context, f SubmissionFilter) ([]models.Submission, int, error)
	SaveGrade(ctx context.Context, id uuid.UUID, g models.Grade) error
	DeleteSubmission(ctx context.Context, id uuid.UUID) error
	SumGradedScores(ctx context.Context, userID uuid.UUID) (int, error)
	SubmissionStats(ctx context.Context, f SubmissionFilter) ([]StatusCount, error)

	CreateAttendance(ctx context.Context, a *models.Attendance) error
	AttendanceExists(ctx context.Context, userID uuid.UUID, date time.Time, session models.Session) (bool, error)
	GetAttendance(ctx context.Context, id uuid.UUID) (*models.Attendance, error)
	ListAttendance(ctx context.Context, f AttendanceFilter) ([]models.Attendance, int, error)
	UpdateAttendance(ctx context.Context, a *models.Attendance) error
	DeleteAttendance(ctx context.Context, id uuid.UUID) error
	AttendanceCounts(ctx context.Context, f AttendanceFilter) ([]AttendanceCount, error)

	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	// GetAnnouncement fills attachments and read receipts.
	GetAnnouncement(ctx context.Context, id uuid.UUID) (*models.Announcement, error)
	ListAnnouncements(ctx context.Context, f AnnouncementFilter) ([]models.Announcement, int, error)
	CountAnnouncements(ctx context.Context, f AnnouncementFilter) (int, error)
	UpdateAnnouncement(ctx context.Context, a *models.Announcement) error
	AddAttachments(ctx context.Context, id uuid.UUID, atts []models.Attachment) error
	DeleteAnnouncement(ctx context.Context, id uuid.UUID) error
	// MarkRead inserts a receipt unless one exists; inserted reports which happened.
	MarkRead(ctx context.Context, announcementID, userID uuid.UUID, at time.Time) (inserted bool, err error)
	ListReadReceipts(ctx context.Context, announcementID uuid.UUID) ([]models.ReadReceipt, error)
}
