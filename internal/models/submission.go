package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/apperr"
)

type SubmissionType string

const (
	SubmissionFile SubmissionType = "file"
	SubmissionLink SubmissionType = "link"
	SubmissionText SubmissionType = "text"
)

type SubmissionStatus string

const (
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
	StatusReturned  SubmissionStatus = "returned"
)

// Content is the payload of a submission; exactly one variant per SubmissionType.
type Content interface {
	Type() SubmissionType
	check() error
}

type FileContent struct {
	URL  string `json:"fileUrl"`
	Name string `json:"fileName"`
	Size int64  `json:"fileSize"`
}

func (FileContent) Type() SubmissionType { return SubmissionFile }

func (c FileContent) check() error {
	if strings.TrimSpace(c.URL) == "" {
		return apperr.Invalid("fileUrl", "file URL is required for file submissions")
	}
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Invalid("fileName", "file name is required for file submissions")
	}
	if c.Size < 0 {
		return apperr.Invalid("fileSize", "file size cannot be negative")
	}
	return nil
}

type LinkContent struct {
	URL   string `json:"link"`
	Title string `json:"linkTitle,omitempty"`
}

func (LinkContent) Type() SubmissionType { return SubmissionLink }

func (c LinkContent) check() error {
	if strings.TrimSpace(c.URL) == "" {
		return apperr.Invalid("link", "link is required for link submissions")
	}
	if err := validate.Var(c.URL, "url"); err != nil {
		return apperr.Invalid("link", "link must be a valid URL")
	}
	return nil
}

type TextContent struct {
	Text string `json:"text"`
}

func (TextContent) Type() SubmissionType { return SubmissionText }

func (c TextContent) check() error {
	if strings.TrimSpace(c.Text) == "" {
		return apperr.Invalid("text", "text is required for text submissions")
	}
	return nil
}

// CheckContent validates a content variant.
func CheckContent(c Content) error {
	if c == nil {
		return apperr.Invalid("submissionType", "submission content is required")
	}
	return c.check()
}

type Submission struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"userId"`
	TaskID      uuid.UUID        `json:"taskId"`
	Content     Content          `json:"content"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Score       *int             `json:"score,omitempty"`
	Feedback    string           `json:"feedback,omitempty"`
	Status      SubmissionStatus `json:"status"`
	GradedBy    *uuid.UUID       `json:"gradedBy,omitempty"`
	GradedAt    *time.Time       `json:"gradedAt,omitempty"`
	IsLate      bool             `json:"isLate"`
}

func (s Submission) Type() SubmissionType {
	if s.Content == nil {
		return ""
	}
	return s.Content.Type()
}

func (s Submission) IsGraded() bool { return s.Status == StatusGraded }

// CountsTowardTotal reports whether the submission contributes to the owner's totalScore.
func (s Submission) CountsTowardTotal() bool { return s.Status == StatusGraded && s.Score != nil }

// Grade is the state written by the grading engine in one step.
type Grade struct {
	Score    int
	Feedback string
	Status   SubmissionStatus
	GradedBy uuid.UUID
	GradedAt time.Time
}

type NewSubmission struct {
	TaskID  uuid.UUID `json:"taskId" validate:"required"`
	Content Content   `json:"content"`
}
