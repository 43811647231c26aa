package memdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

// ---- tasks ----

func (db *DB) CreateTask(_ context.Context, t *models.Task) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *t
	db.tasks[t.ID] = &cp
	return nil
}

func (db *DB) GetTask(_ context.Context, id uuid.UUID) (*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task")
	}
	cp := *t
	return &cp, nil
}

func (db *DB) ListTasks(_ context.Context, f store.TaskFilter) ([]models.Task, int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []models.Task
	for _, t := range db.tasks {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Active != nil && t.IsActive != *f.Active {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.ByDeadline {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, f.Page), len(out), nil
}

func (db *DB) UpdateTask(_ context.Context, t *models.Task) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tasks[t.ID]; !ok {
		return apperr.NotFound("task")
	}
	cp := *t
	db.tasks[t.ID] = &cp
	return nil
}

func (db *DB) DeleteTask(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tasks[id]; !ok {
		return apperr.NotFound("task")
	}
	for _, s := range db.submissions {
		if s.TaskID == id {
			return apperr.Conflict("cannot delete a task with submissions; deactivate it instead")
		}
	}
	delete(db.tasks, id)
	return nil
}

// ---- submissions ----

func (db *DB) CreateSubmission(_ context.Context, s *models.Submission) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	key := [2]uuid.UUID{s.UserID, s.TaskID}
	if _, ok := db.subKeys[key]; ok {
		return apperr.Duplicate("task", "you have already submitted this task")
	}
	cp := *s
	db.submissions[s.ID] = &cp
	db.subKeys[key] = s.ID
	return nil
}

func (db *DB) GetSubmission(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.submissions[id]
	if !ok {
		return nil, apperr.NotFound("submission")
	}
	cp := *s
	return &cp, nil
}

func (db *DB) SubmissionExists(_ context.Context, userID, taskID uuid.UUID) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.subKeys[[2]uuid.UUID{userID, taskID}]
	return ok, nil
}

func (db *DB) filterSubmissions(f store.SubmissionFilter) []models.Submission {
	var out []models.Submission
	for _, s := range db.submissions {
		if f.UserID != nil && s.UserID != *f.UserID {
			continue
		}
		if f.TaskID != nil && s.TaskID != *f.TaskID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (db *DB) ListSubmissions(_ context.Context, f store.SubmissionFilter) ([]models.Submission, int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	all := db.filterSubmissions(f)
	return page(all, f.Page), len(all), nil
}

func (db *DB) SaveGrade(_ context.Context, id uuid.UUID, g models.Grade) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fail("SaveGrade"); err != nil {
		return err
	}
	s, ok := db.submissions[id]
	if !ok {
		return apperr.NotFound("submission")
	}
	score, by, at := g.Score, g.GradedBy, g.GradedAt
	s.Score = &score
	s.Feedback = g.Feedback
	s.Status = g.Status
	s.GradedBy = &by
	s.GradedAt = &at
	return nil
}

func (db *DB) DeleteSubmission(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.submissions[id]
	if !ok {
		return apperr.NotFound("submission")
	}
	delete(db.subKeys, [2]uuid.UUID{s.UserID, s.TaskID})
	delete(db.submissions, id)
	return nil
}

func (db *DB) SumGradedScores(_ context.Context, userID uuid.UUID) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.fail("SumGradedScores"); err != nil {
		return 0, err
	}
	sum := 0
	for _, s := range db.submissions {
		if s.UserID == userID && s.CountsTowardTotal() {
			sum += *s.Score
		}
	}
	return sum, nil
}

func (db *DB) SubmissionStats(_ context.Context, f store.SubmissionFilter) ([]store.StatusCount, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	byStatus := map[models.SubmissionStatus]*store.StatusCount{}
	for _, s := range db.filterSubmissions(f) {
		c, ok := byStatus[s.Status]
		if !ok {
			c = &store.StatusCount{Status: s.Status}
			byStatus[s.Status] = c
		}
		c.Count++
		if s.Score != nil {
			c.Scored++
			c.ScoreSum += *s.Score
			if *s.Score > c.MaxScore {
				c.MaxScore = *s.Score
			}
		}
	}
	out := make([]store.StatusCount, 0, len(byStatus))
	for _, c := range byStatus {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

// ---- attendance ----

func (db *DB) CreateAttendance(_ context.Context, a *models.Attendance) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	key := attendanceKey{a.UserID, a.Date.UTC(), a.Session}
	if _, ok := db.attKeys[key]; ok {
		return apperr.Duplicate("session", "attendance already marked for this session today")
	}
	cp := *a
	db.attendance[a.ID] = &cp
	db.attKeys[key] = a.ID
	return nil
}

func (db *DB) AttendanceExists(_ context.Context, userID uuid.UUID, date time.Time, session models.Session) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.attKeys[attendanceKey{userID, date.UTC(), session}]
	return ok, nil
}

func (db *DB) GetAttendance(_ context.Context, id uuid.UUID) (*models.Attendance, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.attendance[id]
	if !ok {
		return nil, apperr.NotFound("attendance")
	}
	cp := *a
	return &cp, nil
}

func (db *DB) filterAttendance(f store.AttendanceFilter) []models.Attendance {
	var out []models.Attendance
	for _, a := range db.attendance {
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if !f.From.IsZero() && a.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.Date.After(f.To) {
			continue
		}
		if f.Session != "" && a.Session != f.Session {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].MarkedAt.After(out[j].MarkedAt)
	})
	return out
}

func (db *DB) ListAttendance(_ context.Context, f store.AttendanceFilter) ([]models.Attendance, int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	all := db.filterAttendance(f)
	return page(all, f.Page), len(all), nil
}

func (db *DB) UpdateAttendance(_ context.Context, a *models.Attendance) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cur, ok := db.attendance[a.ID]
	if !ok {
		return apperr.NotFound("attendance")
	}
	cur.Status = a.Status
	cur.Remarks = a.Remarks
	cur.MarkedBy = a.MarkedBy
	cur.MarkedAt = a.MarkedAt
	return nil
}

func (db *DB) DeleteAttendance(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.attendance[id]
	if !ok {
		return apperr.NotFound("attendance")
	}
	delete(db.attKeys, attendanceKey{a.UserID, a.Date.UTC(), a.Session})
	delete(db.attendance, id)
	return nil
}

func (db *DB) AttendanceCounts(_ context.Context, f store.AttendanceFilter) ([]store.AttendanceCount, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	type key struct {
		user   uuid.UUID
		date   time.Time
		status models.AttendanceStatus
	}
	counts := map[key]int{}
	for _, a := range db.filterAttendance(f) {
		counts[key{a.UserID, a.Date, a.Status}]++
	}
	out := make([]store.AttendanceCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, store.AttendanceCount{UserID: k.user, Date: k.date, Status: k.status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID.String() < out[j].UserID.String()
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

// ---- announcements ----

func (db *DB) CreateAnnouncement(_ context.Context, a *models.Announcement) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := *a
	cp.Attachments = append([]models.Attachment(nil), a.Attachments...)
	cp.ReadBy = nil
	db.announcements[a.ID] = &cp
	return nil
}

func (db *DB) receipts(id uuid.UUID) []models.ReadReceipt {
	var out []models.ReadReceipt
	for k, at := range db.reads {
		if k.announcementID == id {
			out = append(out, models.ReadReceipt{UserID: k.userID, ReadAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReadAt.Equal(out[j].ReadAt) {
			return out[i].ReadAt.Before(out[j].ReadAt)
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}

func (db *DB) GetAnnouncement(_ context.Context, id uuid.UUID) (*models.Announcement, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	a, ok := db.announcements[id]
	if !ok {
		return nil, apperr.NotFound("announcement")
	}
	cp := *a
	cp.Attachments = append([]models.Attachment(nil), a.Attachments...)
	cp.ReadBy = db.receipts(id)
	return &cp, nil
}

func (db *DB) filterAnnouncements(f store.AnnouncementFilter) []models.Announcement {
	var out []models.Announcement
	for _, a := range db.announcements {
		if f.Priority != "" && a.Priority != f.Priority {
			continue
		}
		if len(f.Audiences) > 0 && !hasAudience(f.Audiences, a.TargetAudience) {
			continue
		}
		if f.Active != nil && a.IsActive != *f.Active {
			continue
		}
		if !f.NotExpiredAt.IsZero() && a.IsExpired(f.NotExpiredAt) {
			continue
		}
		if f.UnreadBy != nil {
			if _, read := db.reads[readKey{a.ID, *f.UnreadBy}]; read {
				continue
			}
		}
		cp := *a
		cp.Attachments = append([]models.Attachment(nil), a.Attachments...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func hasAudience(list []models.Audience, a models.Audience) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func (db *DB) ListAnnouncements(_ context.Context, f store.AnnouncementFilter) ([]models.Announcement, int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	all := db.filterAnnouncements(f)
	return page(all, f.Page), len(all), nil
}

func (db *DB) CountAnnouncements(_ context.Context, f store.AnnouncementFilter) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.filterAnnouncements(f)), nil
}

func (db *DB) UpdateAnnouncement(_ context.Context, a *models.Announcement) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	cur, ok := db.announcements[a.ID]
	if !ok {
		return apperr.NotFound("announcement")
	}
	atts := cur.Attachments
	cp := *a
	cp.Attachments = atts
	cp.ReadBy = nil
	db.announcements[a.ID] = &cp
	return nil
}

func (db *DB) AddAttachments(_ context.Context, id uuid.UUID, atts []models.Attachment) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.announcements[id]
	if !ok {
		return apperr.NotFound("announcement")
	}
	a.Attachments = append(a.Attachments, atts...)
	return nil
}

func (db *DB) DeleteAnnouncement(_ context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.announcements[id]; !ok {
		return apperr.NotFound("announcement")
	}
	delete(db.announcements, id)
	for k := range db.reads {
		if k.announcementID == id {
			delete(db.reads, k)
		}
	}
	return nil
}

func (db *DB) MarkRead(_ context.Context, announcementID, userID uuid.UUID, at time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.announcements[announcementID]; !ok {
		return false, apperr.NotFound("announcement")
	}
	k := readKey{announcementID, userID}
	if _, ok := db.reads[k]; ok {
		return false, nil
	}
	db.reads[k] = at
	return true, nil
}

func (db *DB) ListReadReceipts(_ context.Context, announcementID uuid.UUID) ([]models.ReadReceipt, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.receipts(announcementID), nil
}
