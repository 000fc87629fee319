package app

import (
	"context"
	"fmt"
	"sort"

	"learn-activity/internal/domain"
)

// ProgressStore reads the persisted pieces the progress view derives from.
type ProgressStore interface {
	// CompletionPercentages maps lesson keys to the user's best percentage.
	CompletionPercentages(ctx context.Context, userID int64) (map[string]int, error)
	// AttemptCountsByLesson maps lesson keys to the user's attempt count.
	AttemptCountsByLesson(ctx context.Context, userID int64) (map[string]int, error)
	// UserPoints returns the accumulated total and level, zero-valued if absent.
	UserPoints(ctx context.Context, userID int64) (points, level int, err error)
	// Leaderboard returns the top entries ordered by points descending.
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// ProgressService computes derived progress views. Everything is recomputed
// from the store on each call; nothing is cached.
type ProgressService struct {
	store ProgressStore
	rules domain.RewardRules
}

func NewProgressService(store ProgressStore, rules domain.RewardRules) *ProgressService {
	return &ProgressService{store: store, rules: rules}
}

// Progress returns the user's completed set, exhausted-without-pass set,
// attempt counts and current points.
func (s *ProgressService) Progress(ctx context.Context, userID int64) (domain.ProgressView, error) {
	completions, err := s.store.CompletionPercentages(ctx, userID)
	if err != nil {
		return domain.ProgressView{}, fmt.Errorf("load completions: %w", err)
	}
	counts, err := s.store.AttemptCountsByLesson(ctx, userID)
	if err != nil {
		return domain.ProgressView{}, fmt.Errorf("load attempt counts: %w", err)
	}
	points, level, err := s.store.UserPoints(ctx, userID)
	if err != nil {
		return domain.ProgressView{}, fmt.Errorf("load points: %w", err)
	}
	if level == 0 {
		level = domain.LevelFor(points)
	}

	view := domain.ProgressView{
		CompletedQuizzes: make([]string, 0, len(completions)),
		FailedQuizzes:    make([]string, 0),
		AttemptCounts:    counts,
		RepPoints:        points,
		Level:            level,
	}
	for key := range completions {
		view.CompletedQuizzes = append(view.CompletedQuizzes, key)
	}
	for key, count := range counts {
		if _, done := completions[key]; !done && count >= s.rules.MaxAttempts {
			view.FailedQuizzes = append(view.FailedQuizzes, key)
		}
	}
	sort.Strings(view.CompletedQuizzes)
	sort.Strings(view.FailedQuizzes)
	return view, nil
}

// Leaderboard returns the top scorers.
func (s *ProgressService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return s.store.Leaderboard(ctx, limit)
}
