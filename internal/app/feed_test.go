package app_test

import (
	"context"
	"testing"
	"time"

	"learn-activity/internal/app"
	"learn-activity/internal/domain"
	"learn-activity/internal/infra/memory"
)

func TestFeedSubscribePrimesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedWeek(testWeek())
	feed := app.NewLeaderboardFeed(store, 10)

	ch, cancel, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	select {
	case snapshot := <-ch:
		if len(snapshot) != 0 {
			t.Fatalf("expected empty initial snapshot, got %v", snapshot)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestFeedPublishBroadcasts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedWeek(testWeek())
	quizzes := app.NewQuizService(store, store, memory.NewAttemptLock(time.Minute), testRules())
	feed := app.NewLeaderboardFeed(store, 10)

	user, err := store.FindOrCreate(ctx, domain.Profile{DiscordID: "d-1", Username: "alice"})
	if err != nil {
		t.Fatalf("find or create failed: %v", err)
	}

	ch, cancel, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()
	<-ch // initial snapshot

	if _, err := quizzes.Submit(ctx, user, "lesson-1", domain.AnswerMap{"q1": "a", "q2": "b", "q3": "c"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := feed.Publish(ctx); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case update := <-ch:
		if len(update) != 1 || update[0].Username != "alice" || update[0].RepPoints != 50 {
			t.Fatalf("unexpected update: %+v", update)
		}
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	feed := app.NewLeaderboardFeed(store, 10)

	ch, cancel, err := feed.Subscribe(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	<-ch
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel must be closed after cancel")
	}
	// A publish after cancel must not panic on the closed channel.
	if err := feed.Publish(ctx); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}
