package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/ctxutil"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

const taskColumns = `id, title, description, instructions, type, max_score, deadline, is_active, created_by, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (:id, :title, :description, :instructions, :type, :max_score, :deadline, :is_active, :created_by, :created_at, :updated_at)`, t)
	return mapErr(err, "task", "create task")
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var t models.Task
	if err := s.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id); err != nil {
		return nil, mapErr(err, "task", "get task")
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, f store.TaskFilter) ([]models.Task, int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	w := &where{}
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	total, err := s.count(ctx, `SELECT COUNT(*) FROM tasks`+w.String(), w.args)
	if err != nil {
		return nil, 0, mapErr(err, "task", "count tasks")
	}

	order := ` ORDER BY created_at DESC, id`
	if f.ByDeadline {
		order = ` ORDER BY deadline ASC, id`
	}
	var tasks []models.Task
	if err := s.selectq(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks`+w.String()+order+limitClause(f.Page), w.args); err != nil {
		return nil, 0, mapErr(err, "task", "list tasks")
	}
	return tasks, total, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE tasks SET
			title = :title, description = :description, instructions = :instructions, type = :type,
			max_score = :max_score, deadline = :deadline, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`, t)
	if err != nil {
		return mapErr(err, "task", "update task")
	}
	return affected(res, "task")
}

// DeleteTask deletes only when no submission references the task; the
// ON DELETE RESTRICT foreign key backs the check for concurrent submits.
func (s *Store) DeleteTask(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var refs int
	if err := s.db.GetContext(ctx, &refs, `SELECT COUNT(*) FROM submissions WHERE task_id = $1`, id); err != nil {
		return mapErr(err, "task", "count task submissions")
	}
	if refs > 0 {
		return apperr.Conflict("cannot delete a task with submissions; deactivate it instead")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "task", "delete task")
	}
	return affected(res, "task")
}
