package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	Participant Role = "participant"
	Admin       Role = "admin"
	Superadmin  Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case Participant, Admin, Superadmin:
		return true
	}
	return false
}

// IsAdmin covers both admin and superadmin.
func (r Role) IsAdmin() bool { return r == Admin || r == Superadmin }

// Caller is the identity resolved by the auth layer for one request.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

func (c Caller) IsAdmin() bool       { return c.Role.IsAdmin() }
func (c Caller) IsParticipant() bool { return c.Role == Participant }

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	TotalScore   int       `db:"total_score" json:"totalScore"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// NewUser is the registration input. PasswordHash is produced by the caller's hasher.
type NewUser struct {
	Email        string `json:"email" validate:"required,email,max=254"`
	Name         string `json:"name" validate:"required,min=2,max=100"`
	PasswordHash string `json:"passwordHash" validate:"required"`
	Role         Role   `json:"role" validate:"omitempty,oneof=participant admin superadmin"`
}

// NormalizeEmail is the case-insensitive form used for uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
