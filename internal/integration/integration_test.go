package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"learn-activity/internal/app"
	"learn-activity/internal/content"
	"learn-activity/internal/domain"
	"learn-activity/internal/infra/memory"
	pginfra "learn-activity/internal/infra/postgres"
	pgmigrations "learn-activity/internal/infra/postgres/migrations"
)

func TestSubmissionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	rules := domain.RewardRules{PassingScore: 70, MaxAttempts: 3, PassPoints: 30, PerfectPoints: 50}

	db := openBun(t, ctx, dsn)
	defer db.Close()
	syncContent(t, ctx, db, rules)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pginfra.NewStore(db)
	loader := pginfra.NewContentLoader(pool)
	quizzes := app.NewQuizService(loader, store, memory.NewAttemptLock(time.Minute), rules)
	progress := app.NewProgressService(store, rules)

	user, err := store.FindOrCreate(ctx, domain.Profile{DiscordID: "discord-1", Username: "alice", Avatar: "abc"})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if user.ID == 0 || user.RepPoints != 0 || user.Level != 1 {
		t.Fatalf("unexpected new user: %+v", user)
	}

	// Repeat login returns the same record with a refreshed profile.
	again, err := store.FindOrCreate(ctx, domain.Profile{DiscordID: "discord-1", Username: "alice2", Avatar: "abc"})
	if err != nil {
		t.Fatalf("repeat find or create: %v", err)
	}
	if again.ID != user.ID || again.Username != "alice2" {
		t.Fatalf("expected refreshed existing user, got %+v", again)
	}

	quiz, err := loader.QuizByLesson(ctx, "lesson-1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if len(quiz.Questions) == 0 {
		t.Fatalf("expected questions, got %+v", quiz)
	}

	// Build a perfect answer map from the stored content.
	answers := domain.AnswerMap{}
	for _, q := range quiz.Questions {
		answers[q.Key] = q.CorrectOption()
	}

	result, err := quizzes.Submit(ctx, user, "lesson-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Passed || result.Percentage != 100 || result.Points != 50 || result.AttemptNumber != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	total, level, err := store.UserPoints(ctx, user.ID)
	if err != nil {
		t.Fatalf("user points: %v", err)
	}
	if total != 50 || level != 1 {
		t.Fatalf("expected 50 points level 1, got %d/%d", total, level)
	}

	view, err := progress.Progress(ctx, user.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if len(view.CompletedQuizzes) != 1 || view.CompletedQuizzes[0] != "lesson-1" {
		t.Fatalf("unexpected progress: %+v", view)
	}

	entries, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "alice2" || entries[0].RepPoints != 50 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}
}

func TestAttemptLimitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	rules := domain.RewardRules{PassingScore: 70, MaxAttempts: 2, PassPoints: 30, PerfectPoints: 50}

	db := openBun(t, ctx, dsn)
	defer db.Close()
	syncContent(t, ctx, db, rules)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pginfra.NewStore(db)
	quizzes := app.NewQuizService(pginfra.NewContentLoader(pool), store, memory.NewAttemptLock(time.Minute), rules)

	user, err := store.FindOrCreate(ctx, domain.Profile{DiscordID: "discord-2", Username: "bob"})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}

	wrong := domain.AnswerMap{}
	for i := 1; i <= 2; i++ {
		result, err := quizzes.Submit(ctx, user, "lesson-1", wrong)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if result.AttemptNumber != i || result.Passed {
			t.Fatalf("attempt %d: unexpected result %+v", i, result)
		}
	}

	if _, err := quizzes.Submit(ctx, user, "lesson-1", wrong); !errors.Is(err, domain.ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded, got %v", err)
	}

	if total, _, _ := store.UserPoints(ctx, user.ID); total != 0 {
		t.Fatalf("failed attempts must not award points, got %d", total)
	}
}

func TestConcurrentSubmissionsKeepOrdinalsGapless(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	dsn, cleanup := startPostgres(t, ctx)
	defer cleanup()

	rules := domain.RewardRules{PassingScore: 70, MaxAttempts: 3, PassPoints: 30, PerfectPoints: 50}

	db := openBun(t, ctx, dsn)
	defer db.Close()
	syncContent(t, ctx, db, rules)

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pginfra.NewStore(db)
	quizzes := app.NewQuizService(pginfra.NewContentLoader(pool), store, memory.NewAttemptLock(time.Minute), rules)

	user, err := store.FindOrCreate(ctx, domain.Profile{DiscordID: "discord-3", Username: "carol"})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}

	quiz, err := pginfra.NewContentLoader(pool).QuizByLesson(ctx, "lesson-1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}

	// Fire more submissions than the limit allows, all at once. The unique
	// index on (user_id, quiz_id, attempt_number) must keep the recorded
	// ordinals gapless and within the limit, rejecting the losers cleanly.
	const submissions = 6
	results := make(chan error, submissions)
	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := quizzes.Submit(ctx, user, "lesson-1", domain.AnswerMap{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrAttemptConflict), errors.Is(err, domain.ErrAttemptsExceeded):
		default:
			t.Fatalf("unexpected submission error: %v", err)
		}
	}
	if succeeded == 0 {
		t.Fatal("expected at least one submission to land")
	}
	if succeeded > rules.MaxAttempts {
		t.Fatalf("recorded %d attempts past the limit of %d", succeeded, rules.MaxAttempts)
	}

	var numbers []int
	if err := db.NewRaw(
		`SELECT attempt_number FROM quiz_attempts
		 WHERE user_id = ? AND quiz_id = ?
		 ORDER BY attempt_number`, user.ID, quiz.ID).Scan(ctx, &numbers); err != nil {
		t.Fatalf("load attempt numbers: %v", err)
	}
	if len(numbers) != succeeded {
		t.Fatalf("expected %d rows, got %v", succeeded, numbers)
	}
	for i, n := range numbers {
		if n != i+1 {
			t.Fatalf("expected gapless ordinals 1..%d, got %v", succeeded, numbers)
		}
	}
}

func openBun(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func syncContent(t *testing.T, ctx context.Context, db *bun.DB, rules domain.RewardRules) {
	t.Helper()
	if err := pginfra.NewSyncer(db, rules).Sync(ctx, content.Current()); err != nil {
		t.Fatalf("sync content: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "learn", "POSTGRES_PASSWORD": "learnpass", "POSTGRES_DB": "learndb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://learn:learnpass@%s:%s/learndb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
