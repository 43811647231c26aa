package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/guard"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
	loc   *time.Location
}

func New(st store.Store, log *zap.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: st, log: logging.Named(log, "users"), now: time.Now, loc: loc}
}

type Profile struct {
	User              models.User                `json:"user"`
	TotalSubmissions  int                        `json:"totalSubmissions"`
	GradedSubmissions int                        `json:"gradedSubmissions"`
	AttendanceSummary models.AttendanceBreakdown `json:"attendanceStats"`
}

type Dashboard struct {
	TotalParticipants  int `json:"totalParticipants"`
	ActiveParticipants int `json:"activeParticipants"`
	TotalTasks         int `json:"totalTasks"`
	ActiveTasks        int `json:"activeTasks"`
	TotalSubmissions   int `json:"totalSubmissions"`
	PendingSubmissions int `json:"pendingSubmissions"`
	PresentToday       int `json:"todayAttendance"`
}

// Register creates an account. Emails are unique case-insensitively.
func (s *Service) Register(ctx context.Context, in models.NewUser) (*models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.Participant
	}
	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Name:         in.Name,
		Role:         in.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := guard.Insert(ctx, guard.Key{
		Entity: "user",
		Exists: func(ctx context.Context) (bool, error) {
			_, err := s.store.GetUserByEmail(ctx, in.Email)
			if err == nil {
				return true, nil
			}
			if apperr.KindOf(err) == apperr.KindNotFound {
				return false, nil
			}
			return false, err
		},
		Duplicate: apperr.Duplicate("email", "a user with this email already exists"),
	}, func(ctx context.Context) error {
		return s.store.CreateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return u, nil
}

// Get returns a profile with submission and attendance figures. Participants may
// only read their own profile.
func (s *Service) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*Profile, error) {
	if !caller.IsAdmin() && caller.UserID != id {
		return nil, apperr.Forbidden("access denied to this profile")
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: *u}

	stats, err := s.store.SubmissionStats(ctx, store.SubmissionFilter{UserID: &id})
	if err != nil {
		return nil, err
	}
	for _, st := range stats {
		p.TotalSubmissions += st.Count
		if st.Status == models.StatusGraded {
			p.GradedSubmissions += st.Count
		}
	}

	counts, err := s.store.AttendanceCounts(ctx, store.AttendanceFilter{UserID: &id})
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		p.AttendanceSummary.Add(c.Status, c.Count)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, caller models.Caller, f store.UserFilter) ([]models.User, int, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperr.Forbidden("admin access required")
	}
	return s.store.ListUsers(ctx, f)
}

// SetActive activates or soft-deletes an account. Admins cannot deactivate themselves.
func (s *Service) SetActive(ctx context.Context, caller models.Caller, id uuid.UUID, active bool) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	if !active && id == caller.UserID {
		return nil, apperr.Forbidden("you cannot deactivate your own account")
	}
	if err := s.store.SetUserActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.log.Info("user status changed", zap.String("user_id", id.String()), zap.Bool("active", active))
	return s.store.GetUser(ctx, id)
}

// Toggle flips IsActive.
func (s *Service) Toggle(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetActive(ctx, caller, id, !u.IsActive)
}

// Deactivate is the soft delete.
func (s *Service) Deactivate(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	_, err := s.SetActive(ctx, caller, id, false)
	return err
}

// SetRole switches between participant and admin; superadmin is never granted here.
func (s *Service) SetRole(ctx context.Context, caller models.Caller, id uuid.UUID, role models.Role) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	if role != models.Participant && role != models.Admin {
		return nil, apperr.Invalid("role", "role must be participant or admin")
	}
	if err := s.store.SetUserRole(ctx, id, role); err != nil {
		return nil, err
	}
	s.log.Info("user role changed", zap.String("user_id", id.String()), zap.String("role", string(role)))
	return s.store.GetUser(ctx, id)
}

// Dashboard summarizes the event for admins.
func (s *Service) Dashboard(ctx context.Context, caller models.Caller) (*Dashboard, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	participants := []models.Role{models.Participant}
	var (
		d   Dashboard
		err error
	)
	if d.TotalParticipants, err = s.store.CountUsers(ctx, store.UserFilter{Roles: participants}); err != nil {
		return nil, err
	}
	if d.ActiveParticipants, err = s.store.CountUsers(ctx, store.UserFilter{Roles: participants, ActiveOnly: true}); err != nil {
		return nil, err
	}
	if _, d.TotalTasks, err = s.store.ListTasks(ctx, store.TaskFilter{Page: store.Page{Limit: 1}}); err != nil {
		return nil, err
	}
	if _, d.ActiveTasks, err = s.store.ListTasks(ctx, store.TaskFilter{Active: store.Bool(true), Page: store.Page{Limit: 1}}); err != nil {
		return nil, err
	}
	stats, err := s.store.SubmissionStats(ctx, store.SubmissionFilter{})
	if err != nil {
		return nil, err
	}
	for _, st := range stats {
		d.TotalSubmissions += st.Count
		if st.Status == models.StatusSubmitted {
			d.PendingSubmissions += st.Count
		}
	}
	today := models.DateOf(s.now(), s.loc)
	if _, d.PresentToday, err = s.store.ListAttendance(ctx, store.AttendanceFilter{
		From: today, To: today, Status: models.Present, Page: store.Page{Limit: 1},
	}); err != nil {
		return nil, err
	}
	return &d, nil
}
