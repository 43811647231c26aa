package scoring

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := newUserLocks()
	id := uuid.New()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(id)
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Empty(t, locks.byID, "released locks are dropped")
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	locks := newUserLocks()
	unlockA := locks.lock(uuid.New())
	done := make(chan struct{})
	go func() {
		locks.lock(uuid.New())()
		close(done)
	}()
	<-done
	unlockA()
}
