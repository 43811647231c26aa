package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskAssignment   TaskType = "assignment"
	TaskProject      TaskType = "project"
	TaskQuiz         TaskType = "quiz"
	TaskPresentation TaskType = "presentation"
)

type Task struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Instructions string    `db:"instructions" json:"instructions,omitempty"`
	Type         TaskType  `db:"type" json:"type"`
	MaxScore     int       `db:"max_score" json:"maxScore"`
	Deadline     time.Time `db:"deadline" json:"deadline"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedBy    uuid.UUID `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

func (t Task) IsOverdue(now time.Time) bool { return now.After(t.Deadline) }

type NewTask struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Description  string    `json:"description" validate:"required,max=5000"`
	Instructions string    `json:"instructions" validate:"max=10000"`
	Type         TaskType  `json:"type" validate:"omitempty,oneof=assignment project quiz presentation"`
	MaxScore     int       `json:"maxScore" validate:"gt=0"`
	Deadline     time.Time `json:"deadline" validate:"required"`
}

// TaskPatch carries optional task edits; nil fields are left untouched.
type TaskPatch struct {
	Title        *string    `json:"title" validate:"omitempty,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	Instructions *string    `json:"instructions" validate:"omitempty,max=10000"`
	Type         *TaskType  `json:"type" validate:"omitempty,oneof=assignment project quiz presentation"`
	MaxScore     *int       `json:"maxScore" validate:"omitempty,gt=0"`
	Deadline     *time.Time `json:"deadline"`
	IsActive     *bool      `json:"isActive"`
}

func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Instructions != nil {
		t.Instructions = *p.Instructions
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.MaxScore != nil {
		t.MaxScore = *p.MaxScore
	}
	if p.Deadline != nil {
		t.Deadline = *p.Deadline
	}
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
}
