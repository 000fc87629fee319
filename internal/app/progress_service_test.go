package app_test

import (
	"context"
	"testing"
	"time"

	"learn-activity/internal/app"
	"learn-activity/internal/content"
	"learn-activity/internal/domain"
	"learn-activity/internal/infra/memory"
)

func twoLessonWeek() content.Week {
	week := testWeek()
	week.Lessons = append(week.Lessons, content.LessonDef{Key: "lesson-2", Title: "More", OrderIndex: 2})
	week.Quizzes["lesson-2"] = content.QuizDef{
		Title:        "More",
		PassingScore: 70,
		Questions: []content.QuestionDef{
			{Key: "q1", Text: "Only?", Correct: "a", Options: []content.OptionDef{{Key: "a", Text: "yes"}, {Key: "b", Text: "no"}}},
		},
	}
	return week
}

func TestProgressView(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedWeek(twoLessonWeek())
	quizzes := app.NewQuizService(store, store, memory.NewAttemptLock(time.Minute), testRules())
	progress := app.NewProgressService(store, testRules())
	user := testUser()

	// Pass lesson-1, exhaust lesson-2 without passing.
	if _, err := quizzes.Submit(ctx, user, "lesson-1", domain.AnswerMap{"q1": "a", "q2": "b", "q3": "c"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := quizzes.Submit(ctx, user, "lesson-2", domain.AnswerMap{"q1": "b"}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	view, err := progress.Progress(ctx, user.ID)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if len(view.CompletedQuizzes) != 1 || view.CompletedQuizzes[0] != "lesson-1" {
		t.Fatalf("unexpected completed set: %v", view.CompletedQuizzes)
	}
	if len(view.FailedQuizzes) != 1 || view.FailedQuizzes[0] != "lesson-2" {
		t.Fatalf("unexpected failed set: %v", view.FailedQuizzes)
	}
	if view.AttemptCounts["lesson-1"] != 1 || view.AttemptCounts["lesson-2"] != 3 {
		t.Fatalf("unexpected attempt counts: %v", view.AttemptCounts)
	}
	if view.RepPoints != 50 || view.Level != 1 {
		t.Fatalf("unexpected points: %d at level %d", view.RepPoints, view.Level)
	}
}

func TestProgressFailedClearsOnLaterPass(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedWeek(testWeek())
	quizzes := app.NewQuizService(store, store, memory.NewAttemptLock(time.Minute), testRules())
	progress := app.NewProgressService(store, testRules())
	user := testUser()

	// Two fails then a pass on the final attempt: the lesson counts as
	// completed, not failed, despite the exhausted attempts.
	wrong := domain.AnswerMap{"q1": "b", "q2": "a", "q3": "b"}
	for i := 0; i < 2; i++ {
		if _, err := quizzes.Submit(ctx, user, "lesson-1", wrong); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	if _, err := quizzes.Submit(ctx, user, "lesson-1", domain.AnswerMap{"q1": "a", "q2": "b", "q3": "c"}); err != nil {
		t.Fatalf("final submit failed: %v", err)
	}

	view, err := progress.Progress(ctx, user.ID)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if len(view.FailedQuizzes) != 0 {
		t.Fatalf("expected no failed quizzes, got %v", view.FailedQuizzes)
	}
	if len(view.CompletedQuizzes) != 1 {
		t.Fatalf("expected completed lesson-1, got %v", view.CompletedQuizzes)
	}
}

func TestProgressEmptyUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.SeedWeek(testWeek())
	progress := app.NewProgressService(store, testRules())

	view, err := progress.Progress(ctx, 42)
	if err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if len(view.CompletedQuizzes) != 0 || len(view.FailedQuizzes) != 0 || len(view.AttemptCounts) != 0 {
		t.Fatalf("expected empty view, got %+v", view)
	}
	if view.RepPoints != 0 || view.Level != 1 {
		t.Fatalf("expected level 1 with 0 points, got %+v", view)
	}
}
