// Package seed creates fixtures directly in a store for service tests.
package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

// Epoch is a fixed clock for tests: 2024-03-15 10:00 UTC.
var Epoch = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func User(t *testing.T, st store.Store, name string, role models.Role) models.Caller {
	t.Helper()
	u := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: "hash",
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return models.Caller{UserID: u.ID, Role: role}
}

func Participant(t *testing.T, st store.Store, name string) models.Caller {
	t.Helper()
	return User(t, st, name, models.Participant)
}

func Admin(t *testing.T, st store.Store) models.Caller {
	t.Helper()
	return User(t, st, "admin", models.Admin)
}

// Task creates an active task owned by createdBy.
func Task(t *testing.T, st store.Store, createdBy uuid.UUID, maxScore int, deadline time.Time) *models.Task {
	t.Helper()
	task := &models.Task{
		ID:          uuid.New(),
		Title:       "task " + uuid.NewString()[:8],
		Description: "build something",
		Type:        models.TaskProject,
		MaxScore:    maxScore,
		Deadline:    deadline,
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   Epoch,
		UpdatedAt:   Epoch,
	}
	require.NoError(t, st.CreateTask(context.Background(), task))
	return task
}

// Submission stores an ungraded link submission.
func Submission(t *testing.T, st store.Store, userID, taskID uuid.UUID) *models.Submission {
	t.Helper()
	s := &models.Submission{
		ID:          uuid.New(),
		UserID:      userID,
		TaskID:      taskID,
		Content:     models.LinkContent{URL: "https://github.com/team/repo"},
		SubmittedAt: Epoch,
		Status:      models.StatusSubmitted,
	}
	require.NoError(t, st.CreateSubmission(context.Background(), s))
	return s
}

func Clock(t time.Time) func() time.Time { return func() time.Time { return t } }
