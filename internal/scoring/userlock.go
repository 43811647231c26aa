package scoring

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks serializes recomputations of one user inside this process, so a
// recompute that started earlier can never overwrite the result of a later one.
type userLocks struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{byID: make(map[uuid.UUID]*userLock)}
}

func (l *userLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.byID[id]
	if !ok {
		m = &userLock{}
		l.byID[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.byID, id)
		}
		l.mu.Unlock()
	}
}
