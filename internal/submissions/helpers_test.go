package submissions

import (
	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/store"
)

var pageAll = store.Page{}

func storeFilter(userID, taskID uuid.UUID) store.SubmissionFilter {
	return store.SubmissionFilter{UserID: &userID, TaskID: &taskID}
}
