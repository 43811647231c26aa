package submissions

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/logging"
	"github.com/Spok95/hackathon-portal/internal/metrics"
	"github.com/Spok95/hackathon-portal/internal/models"
)

// Grade scores a submission and recomputes the owner's total in the same call.
func (s *Service) Grade(ctx context.Context, caller models.Caller, id uuid.UUID, score int, feedback string) (*GradeResult, error) {
	return s.grade(ctxutil.WithOp(ctx, "submissions.Grade"), caller, id, score, feedback, false)
}

// Regrade changes the score of an already graded submission.
func (s *Service) Regrade(ctx context.Context, caller models.Caller, id uuid.UUID, score int, feedback string) (*GradeResult, error) {
	return s.grade(ctxutil.WithOp(ctx, "submissions.Regrade"), caller, id, score, feedback, true)
}

func (s *Service) grade(ctx context.Context, caller models.Caller, id uuid.UUID, score int, feedback string, regrade bool) (*GradeResult, error) {
	op := "grade"
	if regrade {
		op = "regrade"
	}
	if !caller.IsAdmin() {
		metrics.Gradings.WithLabelValues(op, "forbidden").Inc()
		return nil, apperr.Forbidden("admin access required")
	}

	sub, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if regrade && !sub.IsGraded() {
		return nil, apperr.Invalid("status", "submission has not been graded yet")
	}
	task, err := s.store.GetTask(ctx, sub.TaskID)
	if err != nil {
		return nil, err
	}
	if score < 0 || score > task.MaxScore {
		metrics.Gradings.WithLabelValues(op, "invalid_score").Inc()
		return nil, apperr.InvalidScore(score, task.MaxScore)
	}

	g := models.Grade{
		Score:    score,
		Feedback: feedback,
		Status:   models.StatusGraded,
		GradedBy: caller.UserID,
		GradedAt: s.now().UTC(),
	}
	if err := s.store.SaveGrade(ctx, id, g); err != nil {
		metrics.Gradings.WithLabelValues(op, "error").Inc()
		return nil, err
	}
	metrics.Gradings.WithLabelValues(op, "ok").Inc()

	sub.Score = &g.Score
	sub.Feedback = g.Feedback
	sub.Status = g.Status
	sub.GradedBy = &g.GradedBy
	sub.GradedAt = &g.GradedAt

	logging.FromContext(ctx, s.log).Info("submission graded",
		zap.String("submission_id", id.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.Int("score", score),
		zap.Int("max_score", task.MaxScore),
		zap.Bool("regrade", regrade),
	)

	res := &GradeResult{Submission: sub}
	res.TotalScoreStale = s.agg.AfterWrite(ctx, sub.UserID, op) != nil
	return res, nil
}
