package export

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/scoring"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const (
	ReportScores      = "scores"
	ReportAttendance  = "attendance"
	ReportSubmissions = "submissions"
	ReportParticipant = "participant"
)

// Reporter builds flat tables from stored state. It only reads: totals come from
// User.TotalScore as stored.
type Reporter struct {
	store store.Store
	board *scoring.Leaderboard
	log   *zap.Logger
}

func NewReporter(st store.Store, board *scoring.Leaderboard, log *zap.Logger) *Reporter {
	return &Reporter{store: st, board: board, log: logging.Named(log, "export")}
}

func noData(what string) error { return apperr.NotFound(what + " data") }

// Scores is the ranked participant list with submission figures.
func (r *Reporter) Scores(ctx context.Context, caller models.Caller) ([]Sheet, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	entries, err := r.board.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, noData("score")
	}
	s := Sheet{
		Title:  "Scores",
		Header: []string{"Rank", "Name", "Email", "Total Score", "Registered", "Submissions", "Graded", "Average Score"},
	}
	for _, e := range entries {
		id := e.UserID
		stats, err := r.store.SubmissionStats(ctx, store.SubmissionFilter{UserID: &id})
		if err != nil {
			return nil, err
		}
		var total, graded, scored, sum int
		for _, st := range stats {
			total += st.Count
			scored += st.Scored
			sum += st.ScoreSum
			if st.Status == models.StatusGraded {
				graded += st.Count
			}
		}
		avg := ""
		if scored > 0 {
			avg = fmtFloat(float64(sum) / float64(scored))
		}
		s.Rows = append(s.Rows, []string{
			strconv.Itoa(e.Rank), e.Name, e.Email, strconv.Itoa(e.TotalScore), formatDate(e.JoinedAt),
			strconv.Itoa(total), strconv.Itoa(graded), avg,
		})
	}
	return []Sheet{s}, nil
}

// Attendance lists records matching f, newest first.
func (r *Reporter) Attendance(ctx context.Context, caller models.Caller, f store.AttendanceFilter) ([]Sheet, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	recs, _, err := r.store.ListAttendance(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, noData("attendance")
	}
	names := userCache{store: r.store}
	s := Sheet{Title: "Attendance", Header: []string{"Name", "Email", "Date", "Session", "Status", "Marked At", "Remarks"}}
	for _, a := range recs {
		u, err := names.get(ctx, a.UserID)
		if err != nil {
			return nil, err
		}
		s.Rows = append(s.Rows, []string{
			u.Name, u.Email, formatDate(a.Date), string(a.Session), string(a.Status), formatTime(a.MarkedAt), a.Remarks,
		})
	}
	return []Sheet{s}, nil
}

// Submissions lists submissions matching f with their task and grade.
func (r *Reporter) Submissions(ctx context.Context, caller models.Caller, f store.SubmissionFilter) ([]Sheet, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	subs, _, err := r.store.ListSubmissions(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, noData("submission")
	}
	names := userCache{store: r.store}
	tasks := taskCache{store: r.store}
	s := Sheet{
		Title: "Submissions",
		Header: []string{"Participant", "Email", "Task", "Type", "Submitted At", "Late", "Status",
			"Score", "Max Score", "Graded At", "Feedback"},
	}
	for _, sub := range subs {
		u, err := names.get(ctx, sub.UserID)
		if err != nil {
			return nil, err
		}
		t, err := tasks.get(ctx, sub.TaskID)
		if err != nil {
			return nil, err
		}
		s.Rows = append(s.Rows, []string{
			u.Name, u.Email, t.Title, string(sub.Type()), formatTime(sub.SubmittedAt), yesNo(sub.IsLate),
			string(sub.Status), score(sub.Score), strconv.Itoa(t.MaxScore), gradedAt(sub), sub.Feedback,
		})
	}
	return []Sheet{s}, nil
}

// Participant is the comprehensive report for one user: profile, submissions and
// attendance. Participants may export their own.
func (r *Reporter) Participant(ctx context.Context, caller models.Caller, userID uuid.UUID) ([]Sheet, error) {
	if !caller.IsAdmin() && caller.UserID != userID {
		return nil, apperr.Forbidden("access denied to this participant")
	}
	u, err := r.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := Sheet{
		Title:  "Profile",
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Name", u.Name},
			{"Email", u.Email},
			{"Role", string(u.Role)},
			{"Active", yesNo(u.IsActive)},
			{"Total Score", strconv.Itoa(u.TotalScore)},
			{"Registered", formatDate(u.CreatedAt)},
		},
	}

	subs, _, err := r.store.ListSubmissions(ctx, store.SubmissionFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	tasks := taskCache{store: r.store}
	subSheet := Sheet{Title: "Submissions", Header: []string{"Task", "Type", "Submitted At", "Late", "Status", "Score", "Max Score", "Feedback"}}
	for _, sub := range subs {
		t, err := tasks.get(ctx, sub.TaskID)
		if err != nil {
			return nil, err
		}
		subSheet.Rows = append(subSheet.Rows, []string{
			t.Title, string(sub.Type()), formatTime(sub.SubmittedAt), yesNo(sub.IsLate),
			string(sub.Status), score(sub.Score), strconv.Itoa(t.MaxScore), sub.Feedback,
		})
	}

	recs, _, err := r.store.ListAttendance(ctx, store.AttendanceFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	var summary models.AttendanceBreakdown
	attSheet := Sheet{Title: "Attendance", Header: []string{"Date", "Session", "Status", "Marked At", "Remarks"}}
	for _, a := range recs {
		summary.Add(a.Status, 1)
		attSheet.Rows = append(attSheet.Rows, []string{
			formatDate(a.Date), string(a.Session), string(a.Status), formatTime(a.MarkedAt), a.Remarks,
		})
	}
	profile.Rows = append(profile.Rows,
		[]string{"Submissions", strconv.Itoa(len(subs))},
		[]string{"Days Present", strconv.Itoa(summary.Present)},
		[]string{"Attendance Rate", fmtFloat(summary.Rate * 100)},
	)
	return []Sheet{profile, subSheet, attSheet}, nil
}

type userCache struct {
	store store.Store
	m     map[uuid.UUID]*models.User
}

func (c *userCache) get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := c.m[id]; ok {
		return u, nil
	}
	u, err := c.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.m == nil {
		c.m = map[uuid.UUID]*models.User{}
	}
	c.m[id] = u
	return u, nil
}

type taskCache struct {
	store store.Store
	m     map[uuid.UUID]*models.Task
}

func (c *taskCache) get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	if t, ok := c.m[id]; ok {
		return t, nil
	}
	t, err := c.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.m == nil {
		c.m = map[uuid.UUID]*models.Task{}
	}
	c.m[id] = t
	return t, nil
}

func score(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func gradedAt(s models.Submission) string {
	if s.GradedAt == nil {
		return ""
	}
	return formatTime(*s.GradedAt)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Request names one report; UserID is required for the participant report.
type Request struct {
	Report      string
	UserID      *uuid.UUID
	Attendance  store.AttendanceFilter
	Submissions store.SubmissionFilter
}

func (r *Reporter) Build(ctx context.Context, caller models.Caller, req Request) ([]Sheet, error) {
	var (
		sheets []Sheet
		err    error
	)
	switch req.Report {
	case ReportScores:
		sheets, err = r.Scores(ctx, caller)
	case ReportAttendance:
		sheets, err = r.Attendance(ctx, caller, req.Attendance)
	case ReportSubmissions:
		sheets, err = r.Submissions(ctx, caller, req.Submissions)
	case ReportParticipant:
		if req.UserID == nil {
			return nil, apperr.Invalid("user", "participant report needs a user")
		}
		sheets, err = r.Participant(ctx, caller, *req.UserID)
	default:
		return nil, apperr.Invalid("report", "report must be one of scores, attendance, submissions, participant")
	}
	if err != nil {
		return nil, err
	}
	rows := 0
	for _, s := range sheets {
		rows += len(s.Rows)
	}
	logging.FromContext(ctx, r.log).Info("report built", zap.String("report", req.Report), zap.Int("rows", rows))
	return sheets, nil
}
