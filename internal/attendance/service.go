package attendance

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

const DefaultWindowDays = 30

type Service struct {
	store      store.Store
	log        *zap.Logger
	now        func() time.Time
	loc        *time.Location
	windowDays int
}

// New builds the service. loc decides which calendar day "today" is; windowDays is
// the default statistics window.
func New(st store.Store, log *zap.Logger, loc *time.Location, windowDays int) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Service{store: st, log: logging.Named(log, "attendance"), now: time.Now, loc: loc, windowDays: windowDays}
}

type BulkFailure struct {
	UserID uuid.UUID   `json:"userId"`
	Kind   apperr.Kind `json:"kind"`
	Reason string      `json:"reason"`
}

// BulkResult reports every user of a bulk mark independently.
type BulkResult struct {
	Succeeded []models.Attendance `json:"succeeded"`
	Failed    []BulkFailure       `json:"failed"`
}

func (s *Service) today() time.Time { return models.DateOf(s.now(), s.loc) }

func duplicateMark() *apperr.Error {
	return apperr.Duplicate("session", "attendance already marked for this session today")
}

func (s *Service) insert(ctx context.Context, a *models.Attendance) error {
	return guard.Insert(ctx, guard.Key{
		Entity: "attendance",
		Exists: func(ctx context.Context) (bool, error) {
			return s.store.AttendanceExists(ctx, a.UserID, a.Date, a.Session)
		},
		Duplicate: duplicateMark(),
	}, func(ctx context.Context) error {
		return s.store.CreateAttendance(ctx, a)
	})
}

// Mark records the caller's own attendance. A zero Date means today.
func (s *Service) Mark(ctx context.Context, caller models.Caller, in models.MarkAttendance) (*models.Attendance, error) {
	if !caller.IsParticipant() {
		return nil, apperr.Forbidden("only participants can mark their own attendance")
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	a := s.record(caller.UserID, in, nil)
	if err := s.insert(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("attendance marked",
		zap.String("user_id", a.UserID.String()),
		zap.String("session", string(a.Session)),
		zap.String("status", string(a.Status)),
	)
	return a, nil
}

// MarkForUsers lets an admin mark many users at once. Each user succeeds or fails
// on its own; there is no batch rollback.
func (s *Service) MarkForUsers(ctx context.Context, caller models.Caller, userIDs []uuid.UUID, in models.MarkAttendance) (*BulkResult, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	if len(userIDs) == 0 {
		return nil, apperr.Invalid("userIds", "at least one user is required")
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	res := &BulkResult{}
	by := caller.UserID
	for _, id := range userIDs {
		if err := s.markOne(ctx, id, in, &by, res); err != nil {
			res.Failed = append(res.Failed, BulkFailure{UserID: id, Kind: apperr.KindOf(err), Reason: err.Error()})
		}
	}
	s.log.Info("bulk attendance marked",
		zap.Int("succeeded", len(res.Succeeded)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func (s *Service) markOne(ctx context.Context, userID uuid.UUID, in models.MarkAttendance, by *uuid.UUID, res *BulkResult) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return apperr.NotFound("user")
	}
	a := s.record(userID, in, by)
	if err := s.insert(ctx, a); err != nil {
		return err
	}
	res.Succeeded = append(res.Succeeded, *a)
	return nil
}

func (s *Service) record(userID uuid.UUID, in models.MarkAttendance, by *uuid.UUID) *models.Attendance {
	date := s.today()
	if !in.Date.IsZero() {
		date = models.DateOf(in.Date, s.loc)
	}
	status := in.Status
	if status == "" {
		status = models.Present
	}
	return &models.Attendance{
		ID:       uuid.New(),
		UserID:   userID,
		Date:     date,
		Session:  in.Session,
		Status:   status,
		MarkedAt: s.now().UTC(),
		MarkedBy: by,
		Remarks:  in.Remarks,
	}
}

// CanMark reports whether the caller can still self-mark the session today.
func (s *Service) CanMark(ctx context.Context, caller models.Caller, session models.Session) (bool, error) {
	if !caller.IsParticipant() {
		return false, nil
	}
	exists, err := s.store.AttendanceExists(ctx, caller.UserID, s.today(), session)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *Service) ListMine(ctx context.Context, caller models.Caller, f store.AttendanceFilter) ([]models.Attendance, int, error) {
	f.UserID = store.ID(caller.UserID)
	return s.store.ListAttendance(ctx, f)
}

func (s *Service) List(ctx context.Context, caller models.Caller, f store.AttendanceFilter) ([]models.Attendance, int, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperr.Forbidden("admin access required")
	}
	return s.store.ListAttendance(ctx, f)
}

type Today struct {
	Date      time.Time                  `json:"date"`
	Records   []models.Attendance        `json:"attendance"`
	Breakdown models.AttendanceBreakdown `json:"stats"`
}

func (s *Service) Today(ctx context.Context, caller models.Caller) (*Today, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	day := s.today()
	recs, _, err := s.store.ListAttendance(ctx, store.AttendanceFilter{From: day, To: day})
	if err != nil {
		return nil, err
	}
	t := &Today{Date: day, Records: recs}
	for _, r := range recs {
		t.Breakdown.Add(r.Status, 1)
	}
	return t, nil
}

// Update lets an admin correct status or remarks; the admin becomes the marker.
func (s *Service) Update(ctx context.Context, caller models.Caller, id uuid.UUID, p models.AttendancePatch) (*models.Attendance, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	if err := models.Validate(p); err != nil {
		return nil, err
	}
	a, err := s.store.GetAttendance(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Remarks != nil {
		a.Remarks = *p.Remarks
	}
	by := caller.UserID
	a.MarkedBy = &by
	a.MarkedAt = s.now().UTC()
	if err := s.store.UpdateAttendance(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return s.store.DeleteAttendance(ctx, id)
}
