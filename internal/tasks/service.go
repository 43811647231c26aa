package tasks

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func New(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: logging.Named(log, "tasks"), now: time.Now}
}

type StatusStat struct {
	Status   models.SubmissionStatus `json:"status"`
	Count    int                     `json:"count"`
	AvgScore float64                 `json:"avgScore"`
}

// Details is a task with its submission statistics and, for participants, their own submission.
type Details struct {
	Task      models.Task        `json:"task"`
	IsOverdue bool               `json:"isOverdue"`
	Stats     []StatusStat       `json:"submissionStats"`
	Mine      *models.Submission `json:"userSubmission,omitempty"`
}

// Overview is one row of a task listing.
type Overview struct {
	Task       models.Task              `json:"task"`
	IsOverdue  bool                     `json:"isOverdue"`
	Submitted  bool                     `json:"hasSubmitted"`
	MineStatus *models.SubmissionStatus `json:"submissionStatus,omitempty"`
}

func requireAdmin(c models.Caller) error {
	if !c.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, caller models.Caller, in models.NewTask) (*models.Task, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	t := &models.Task{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		Instructions: in.Instructions,
		Type:         in.Type,
		MaxScore:     in.MaxScore,
		Deadline:     in.Deadline.UTC(),
		IsActive:     true,
		CreatedBy:    caller.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if t.Type == "" {
		t.Type = models.TaskAssignment
	}
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("task created", zap.String("task_id", t.ID.String()), zap.String("title", t.Title))
	return t, nil
}

func (s *Service) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*Details, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !t.IsActive {
		return nil, apperr.NotFound("task")
	}
	raw, err := s.store.SubmissionStats(ctx, store.SubmissionFilter{TaskID: &t.ID})
	if err != nil {
		return nil, err
	}
	d := &Details{Task: *t, IsOverdue: t.IsOverdue(s.now()), Stats: statusStats(raw)}
	if caller.IsParticipant() {
		mine, _, err := s.store.ListSubmissions(ctx, store.SubmissionFilter{
			UserID: store.ID(caller.UserID), TaskID: &t.ID, Page: store.Page{Limit: 1},
		})
		if err != nil {
			return nil, err
		}
		if len(mine) > 0 {
			d.Mine = &mine[0]
		}
	}
	return d, nil
}

// List returns tasks newest first. Participants only see active tasks and get
// their own submission status per task.
func (s *Service) List(ctx context.Context, caller models.Caller, f store.TaskFilter) ([]Overview, int, error) {
	if !caller.IsAdmin() {
		f.Active = store.Bool(true)
	}
	list, total, err := s.store.ListTasks(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return s.overviews(ctx, caller, list, total)
}

// Active lists open tasks by nearest deadline.
func (s *Service) Active(ctx context.Context, caller models.Caller) ([]Overview, error) {
	list, total, err := s.store.ListTasks(ctx, store.TaskFilter{Active: store.Bool(true), ByDeadline: true})
	if err != nil {
		return nil, err
	}
	out, _, err := s.overviews(ctx, caller, list, total)
	return out, err
}

func (s *Service) overviews(ctx context.Context, caller models.Caller, list []models.Task, total int) ([]Overview, int, error) {
	status := map[uuid.UUID]models.SubmissionStatus{}
	if caller.IsParticipant() {
		mine, _, err := s.store.ListSubmissions(ctx, store.SubmissionFilter{UserID: store.ID(caller.UserID)})
		if err != nil {
			return nil, 0, err
		}
		for _, sub := range mine {
			status[sub.TaskID] = sub.Status
		}
	}
	now := s.now()
	out := make([]Overview, 0, len(list))
	for _, t := range list {
		o := Overview{Task: t, IsOverdue: t.IsOverdue(now)}
		if st, ok := status[t.ID]; ok {
			st := st
			o.Submitted = true
			o.MineStatus = &st
		}
		out = append(out, o)
	}
	return out, total, nil
}

// Update applies a patch. MaxScore may not drop below a score already awarded.
func (s *Service) Update(ctx context.Context, caller models.Caller, id uuid.UUID, p models.TaskPatch) (*models.Task, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := models.Validate(p); err != nil {
		return nil, err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.MaxScore != nil && *p.MaxScore < t.MaxScore {
		stats, err := s.store.SubmissionStats(ctx, store.SubmissionFilter{TaskID: &id})
		if err != nil {
			return nil, err
		}
		for _, st := range stats {
			if st.Scored > 0 && st.MaxScore > *p.MaxScore {
				return nil, apperr.Invalid("maxScore", "max score is below an already awarded score")
			}
		}
	}
	p.Apply(t)
	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Toggle flips IsActive.
func (s *Service) Toggle(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Task, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	t.IsActive = !t.IsActive
	t.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("task toggled", zap.String("task_id", id.String()), zap.Bool("active", t.IsActive))
	return t, nil
}

// Delete hard-deletes a task without submissions.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.log.Info("task deleted", zap.String("task_id", id.String()))
	return nil
}

// Submissions lists every submission of a task for grading.
func (s *Service) Submissions(ctx context.Context, caller models.Caller, id uuid.UUID, p store.Page) ([]models.Submission, int, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, 0, err
	}
	if _, err := s.store.GetTask(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.store.ListSubmissions(ctx, store.SubmissionFilter{TaskID: &id, Page: p})
}

func statusStats(raw []store.StatusCount) []StatusStat {
	out := make([]StatusStat, 0, len(raw))
	for _, r := range raw {
		st := StatusStat{Status: r.Status, Count: r.Count}
		if r.Scored > 0 {
			st.AvgScore = round2(float64(r.ScoreSum) / float64(r.Scored))
		}
		out = append(out, st)
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
