// Package memdb is an in-process store.Store used by service tests and local runs
// without PostgreSQL. It enforces the same uniqueness rules as the SQL schema.
package memdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Spok95/hackathon-portal/internal/apperr"
	"github.com/Spok95/hackathon-portal/internal/models"
	"github.com/Spok95/hackathon-portal/internal/store"
)

var _ store.Store = (*DB)(nil)

type attendanceKey struct {
	userID  uuid.UUID
	date    time.Time
	session models.Session
}

type readKey struct {
	announcementID uuid.UUID
	userID         uuid.UUID
}

type DB struct {
	mu sync.RWMutex

	users     map[uuid.UUID]*models.User
	userOrder []uuid.UUID
	emails    map[string]uuid.UUID

	tasks map[uuid.UUID]*models.Task

	submissions map[uuid.UUID]*models.Submission
	subKeys     map[[2]uuid.UUID]uuid.UUID

	attendance map[uuid.UUID]*models.Attendance
	attKeys    map[attendanceKey]uuid.UUID

	announcements map[uuid.UUID]*models.Announcement
	reads         map[readKey]time.Time

	// failures lets tests inject errors per method name.
	failures map[string]error
}

func Open() *DB {
	return &DB{
		users:         make(map[uuid.UUID]*models.User),
		emails:        make(map[string]uuid.UUID),
		tasks:         make(map[uuid.UUID]*models.Task),
		submissions:   make(map[uuid.UUID]*models.Submission),
		subKeys:       make(map[[2]uuid.UUID]uuid.UUID),
		attendance:    make(map[uuid.UUID]*models.Attendance),
		attKeys:       make(map[attendanceKey]uuid.UUID),
		announcements: make(map[uuid.UUID]*models.Announcement),
		reads:         make(map[readKey]time.Time),
		failures:      make(map[string]error),
	}
}

// FailOn makes the named method return err until cleared with a nil err.
func (db *DB) FailOn(method string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.failures, method)
		return
	}
	db.failures[method] = err
}

func (db *DB) fail(method string) error { return db.failures[method] }

func (db *DB) Ping(context.Context) error { return nil }
func (db *DB) Close() error               { return nil }

func page[T any](items []T, p store.Page) []T {
	if p.Offset >= len(items) {
		if p.Offset == 0 {
			return items
		}
		return []T{}
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ---- users ----

func (db *DB) CreateUser(_ context.Context, u *models.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fail("CreateUser"); err != nil {
		return err
	}
	email := strings.ToLower(u.Email)
	if _, ok := db.emails[email]; ok {
		return apperr.Duplicate("email", "a user with this email already exists")
	}
	cp := *u
	db.users[u.ID] = &cp
	db.userOrder = append(db.userOrder, u.ID)
	db.emails[email] = u.ID
	return nil
}

func (db *DB) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if err := db.fail("GetUser"); err != nil {
		return nil, err
	}
	u, ok := db.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (db *DB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	id, ok := db.emails[strings.ToLower(email)]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cp := *db.users[id]
	return &cp, nil
}

func (db *DB) filterUsers(f store.UserFilter) []models.User {
	var out []models.User
	for _, id := range db.userOrder {
		u := db.users[id]
		if len(f.Roles) > 0 && !hasRole(f.Roles, u.Role) {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		if q := strings.TrimSpace(f.Search); q != "" && !containsFold(u.Name, q) && !containsFold(u.Email, q) {
			continue
		}
		out = append(out, *u)
	}
	return out
}

func (db *DB) ListUsers(_ context.Context, f store.UserFilter) ([]models.User, int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	all := db.filterUsers(f)
	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return page(all, f.Page), len(all), nil
}

func (db *DB) CountUsers(_ context.Context, f store.UserFilter) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.filterUsers(f)), nil
}

func (db *DB) SetUserActive(_ context.Context, id uuid.UUID, active bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.IsActive = active
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (db *DB) SetUserRole(_ context.Context, id uuid.UUID, role models.Role) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (db *DB) SetTotalScore(_ context.Context, id uuid.UUID, total int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.fail("SetTotalScore"); err != nil {
		return err
	}
	u, ok := db.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.TotalScore = total
	return nil
}

func (db *DB) ListLeaderboard(_ context.Context, limit int) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	all := db.filterUsers(store.UserFilter{Roles: []models.Role{models.Participant}, ActiveOnly: true})
	sort.SliceStable(all, func(i, j int) bool { return all[i].TotalScore > all[j].TotalScore })
	return page(all, store.Page{Limit: limit}), nil
}
