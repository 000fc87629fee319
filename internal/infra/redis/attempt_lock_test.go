package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) (*AttemptLock, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewAttemptLock(client, time.Minute), mr
}

func TestAcquireIsSingleFlight(t *testing.T) {
	ctx := context.Background()
	lock, _ := newTestLock(t)

	fresh, err := lock.Acquire(ctx, 1, 7)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !fresh {
		t.Fatal("expected first acquire to be fresh")
	}

	fresh, err = lock.Acquire(ctx, 1, 7)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if fresh {
		t.Fatal("expected second acquire to report an active attempt")
	}

	// A different quiz is an independent marker.
	fresh, err = lock.Acquire(ctx, 1, 8)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !fresh {
		t.Fatal("expected fresh acquire for a different quiz")
	}
}

func TestReleaseClearsMarker(t *testing.T) {
	ctx := context.Background()
	lock, mr := newTestLock(t)

	if _, err := lock.Acquire(ctx, 1, 7); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !mr.Exists("attempt:lock:1:7") {
		t.Fatal("expected redis key to be set")
	}

	if err := lock.Release(ctx, 1, 7); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("attempt:lock:1:7") {
		t.Fatal("expected redis key to be removed")
	}
}

func TestMarkerExpires(t *testing.T) {
	ctx := context.Background()
	lock, mr := newTestLock(t)

	if _, err := lock.Acquire(ctx, 1, 7); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	fresh, err := lock.Acquire(ctx, 1, 7)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !fresh {
		t.Fatal("expected marker to expire after TTL")
	}
}
