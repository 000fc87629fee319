package app

import (
	"context"
	"fmt"
	"sync"

	"learn-activity/internal/domain"
)

// LeaderboardFeed fans leaderboard snapshots out to websocket subscribers so
// the dashboard can show standings without polling.
type LeaderboardFeed struct {
	store ProgressStore
	limit int

	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}
}

func NewLeaderboardFeed(store ProgressStore, limit int) *LeaderboardFeed {
	return &LeaderboardFeed{
		store:       store,
		limit:       limit,
		subscribers: make(map[chan []domain.LeaderboardEntry]struct{}),
	}
}

// Subscribe returns a channel of leaderboard snapshots, primed with the
// current standings. The caller must invoke cancel to avoid leaks.
func (f *LeaderboardFeed) Subscribe(ctx context.Context) (<-chan []domain.LeaderboardEntry, func(), error) {
	initial, err := f.store.Leaderboard(ctx, f.limit)
	if err != nil {
		return nil, nil, fmt.Errorf("load leaderboard: %w", err)
	}

	ch := make(chan []domain.LeaderboardEntry, 8)
	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	ch <- initial

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

// Publish reloads the leaderboard and broadcasts it to all subscribers.
// Call it after any submission that changed points.
func (f *LeaderboardFeed) Publish(ctx context.Context) error {
	entries, err := f.store.Leaderboard(ctx, f.limit)
	if err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- entries:
		default:
			// Drop the stale snapshot so a slow client never blocks broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
	return nil
}
