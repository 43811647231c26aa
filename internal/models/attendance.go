package models

import (
	"time"

	"github.com/google/uuid"
)

type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
	SessionEvening   Session = "evening"
	SessionFullDay   Session = "full-day"
)

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
)

type Attendance struct {
	ID       uuid.UUID        `db:"id" json:"id"`
	UserID   uuid.UUID        `db:"user_id" json:"userId"`
	Date     time.Time        `db:"date" json:"date"`
	Session  Session          `db:"session" json:"session"`
	Status   AttendanceStatus `db:"status" json:"status"`
	MarkedAt time.Time        `db:"marked_at" json:"markedAt"`
	MarkedBy *uuid.UUID       `db:"marked_by" json:"markedBy,omitempty"`
	Remarks  string           `db:"remarks" json:"remarks,omitempty"`
}

// SelfMarked is true when the participant marked the record themselves.
func (a Attendance) SelfMarked() bool { return a.MarkedBy == nil }

type MarkAttendance struct {
	Date    time.Time        `json:"date"`
	Session Session          `json:"session" validate:"required,oneof=morning afternoon evening full-day"`
	Status  AttendanceStatus `json:"status" validate:"omitempty,oneof=present absent late"`
	Remarks string           `json:"remarks" validate:"max=500"`
}

type AttendancePatch struct {
	Status  *AttendanceStatus `json:"status" validate:"omitempty,oneof=present absent late"`
	Remarks *string           `json:"remarks" validate:"omitempty,max=500"`
}

// DateOf truncates t to its calendar date in loc, returned as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AttendanceBreakdown is the present/absent/late tally with the derived rate.
type AttendanceBreakdown struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Total   int     `json:"total"`
	Rate    float64 `json:"attendanceRate"`
}

func (b *AttendanceBreakdown) Add(status AttendanceStatus, n int) {
	switch status {
	case Present:
		b.Present += n
	case Absent:
		b.Absent += n
	case Late:
		b.Late += n
	default:
		return
	}
	b.Total = b.Present + b.Absent + b.Late
	if b.Total > 0 {
		b.Rate = float64(b.Present) / float64(b.Total)
	}
}
