package models

import (
	"time"

	"github.com/google/uuid"
)

type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	UserID     uuid.UUID `json:"userId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	TotalScore int       `json:"totalScore"`
	JoinedAt   time.Time `json:"joinedAt"`
}
