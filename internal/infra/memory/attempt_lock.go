package memory

import (
	"context"
	"sync"
	"time"
)

// AttemptLock is the in-process fallback for the Redis attempt marker, used
// when no Redis address is configured.
type AttemptLock struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.Mutex
	locks map[[2]int64]time.Time
}

func NewAttemptLock(ttl time.Duration) *AttemptLock {
	return &AttemptLock{
		ttl:   ttl,
		clock: time.Now,
		locks: make(map[[2]int64]time.Time),
	}
}

func (l *AttemptLock) Acquire(_ context.Context, userID, quizID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := [2]int64{userID, quizID}
	now := l.clock()
	if expires, ok := l.locks[key]; ok && expires.After(now) {
		return false, nil
	}
	l.locks[key] = now.Add(l.ttl)
	return true, nil
}

func (l *AttemptLock) Release(_ context.Context, userID, quizID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, [2]int64{userID, quizID})
	return nil
}
