// Package redis holds the Redis-backed attempt marker.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLock marks a quiz attempt as in flight for a (user, quiz) pair via
// SET NX with TTL. The marker lets the dashboard warn about a second tab and
// expires on its own if a client vanishes mid-quiz.
type AttemptLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptLock(client *redis.Client, ttl time.Duration) *AttemptLock {
	return &AttemptLock{client: client, ttl: ttl}
}

// Acquire returns true when this call set the marker, false when another
// session already holds it.
func (l *AttemptLock) Acquire(ctx context.Context, userID, quizID int64) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(userID, quizID), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire attempt lock: %w", err)
	}
	return ok, nil
}

// Release clears the marker after a submission lands.
func (l *AttemptLock) Release(ctx context.Context, userID, quizID int64) error {
	if err := l.client.Del(ctx, l.key(userID, quizID)).Err(); err != nil {
		return fmt.Errorf("release attempt lock: %w", err)
	}
	return nil
}

func (l *AttemptLock) key(userID, quizID int64) string {
	return fmt.Sprintf("attempt:lock:%d:%d", userID, quizID)
}
