package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/guard"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/scoring"
	"github.com/Spok95/hackathon-portal/internal/store"
)

type Service struct {
	store store.Store
	agg   *scoring.Aggregator
	log   *zap.Logger
	now   func() time.Time
}

func New(st store.Store, agg *scoring.Aggregator, log *zap.Logger) *Service {
	return &Service{store: st, agg: agg, log: logging.Named(log, "submissions"), now: time.Now}
}

// GradeResult is returned by every score-affecting operation. TotalScoreStale is set
// when the write succeeded but the owner's total could not be recomputed.
type GradeResult struct {
	Submission      *models.Submission
	TotalScoreStale bool
}

// Submit creates the caller's single submission for a task.
func (s *Service) Submit(ctx context.Context, caller models.Caller, in models.NewSubmission) (*models.Submission, error) {
	ctx = ctxutil.WithOp(ctx, "submissions.Submit")
	if !caller.IsParticipant() {
		return nil, apperr.Forbidden("only participants can submit tasks")
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	if err := models.CheckContent(in.Content); err != nil {
		return nil, err
	}

	task, err := s.store.GetTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if !task.IsActive {
		return nil, apperr.Invalid("taskId", "task is not active")
	}

	now := s.now().UTC()
	sub := &models.Submission{
		ID:          uuid.New(),
		UserID:      caller.UserID,
		TaskID:      task.ID,
		Content:     in.Content,
		SubmittedAt: now,
		Status:      models.StatusSubmitted,
		IsLate:      task.IsOverdue(now),
	}
	err = guard.Insert(ctx, guard.Key{
		Entity: "submission",
		Exists: func(ctx context.Context) (bool, error) {
			return s.store.SubmissionExists(ctx, caller.UserID, task.ID)
		},
		Duplicate: apperr.Duplicate("task", "you have already submitted this task"),
	}, func(ctx context.Context) error {
		return s.store.CreateSubmission(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.log).Info("submission created",
		zap.String("submission_id", sub.ID.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.String("task_id", sub.TaskID.String()),
		zap.Bool("late", sub.IsLate),
	)
	return sub, nil
}

// Get returns a submission; participants may only read their own.
func (s *Service) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Submission, error) {
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && sub.UserID != caller.UserID {
		return nil, apperr.Forbidden("access denied to this submission")
	}
	return sub, nil
}

func (s *Service) ListMine(ctx context.Context, caller models.Caller, p store.Page) ([]models.Submission, int, error) {
	return s.store.ListSubmissions(ctx, store.SubmissionFilter{UserID: store.ID(caller.UserID), Page: p})
}

// List is the admin view with task/user/status filters.
func (s *Service) List(ctx context.Context, caller models.Caller, f store.SubmissionFilter) ([]models.Submission, int, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperr.Forbidden("admin access required")
	}
	return s.store.ListSubmissions(ctx, f)
}

// Pending lists submissions waiting for a grade.
func (s *Service) Pending(ctx context.Context, caller models.Caller, p store.Page) ([]models.Submission, int, error) {
	return s.List(ctx, caller, store.SubmissionFilter{Status: models.StatusSubmitted, Page: p})
}

// Delete removes a submission. Admins may delete any; owners only while ungraded.
// Removing a scored submission triggers recomputation of the owner's total.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) (*GradeResult, error) {
	ctx = ctxutil.WithOp(ctx, "submissions.Delete")
	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		if sub.UserID != caller.UserID {
			return nil, apperr.Forbidden("access denied to this submission")
		}
		if sub.IsGraded() {
			return nil, apperr.Forbidden("graded submissions cannot be deleted")
		}
	}
	if err := s.store.DeleteSubmission(ctx, id); err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.log).Info("submission deleted",
		zap.String("submission_id", id.String()),
		zap.String("by", caller.UserID.String()),
	)

	res := &GradeResult{Submission: sub}
	if sub.IsGraded() || sub.Score != nil {
		res.TotalScoreStale = s.agg.AfterWrite(ctx, sub.UserID, "submission_delete") != nil
	}
	return res, nil
}
