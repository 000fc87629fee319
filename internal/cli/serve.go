package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"learn-activity/internal/app"
	"learn-activity/internal/auth"
	"learn-activity/internal/config"
	"learn-activity/internal/content"
	"learn-activity/internal/infra/memory"
	pginfra "learn-activity/internal/infra/postgres"
	redisinfra "learn-activity/internal/infra/redis"
	transport "learn-activity/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the activity backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		log.Printf("warning: JWT_SECRET not set, all token verification will fail")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Without a database the server runs fully in memory, seeded with the
	// built-in weekly content. Useful for local activity development.
	var (
		contentRepo app.ContentRepository
		users       app.UserRepository
		attempts    app.AttemptStore
		progress    app.ProgressStore
	)
	if cfg.Postgres.URL != "" {
		db, err := openBunDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := runMigrations(ctx, db); err != nil {
			return err
		}
		syncer := pginfra.NewSyncer(db, cfg.Rules())
		if err := syncer.Sync(ctx, content.Current()); err != nil {
			return err
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		contentTTL := config.TTLDuration(cfg.Quiz.ContentTTL, 10*time.Minute)
		contentRepo = memory.NewContentCache(pginfra.NewContentLoader(pool), contentTTL)

		store := pginfra.NewStore(db)
		users, attempts, progress = store, store, store
	} else {
		log.Printf("no database configured, using in-memory store")
		store := memory.NewStore()
		store.SeedWeek(content.Current())
		contentRepo, users, attempts, progress = store, store, store, store
	}

	lockTTL := config.TTLDuration(cfg.Redis.LockTTL, 10*time.Minute)
	var lock app.AttemptLock
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		lock = redisinfra.NewAttemptLock(client, lockTTL)
	} else {
		lock = memory.NewAttemptLock(lockTTL)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	identity := app.NewIdentityService(tokens, users)
	quizzes := app.NewQuizService(contentRepo, attempts, lock, cfg.Rules())
	progressSvc := app.NewProgressService(progress, cfg.Rules())
	feed := app.NewLeaderboardFeed(progress, cfg.Leaderboard.Limit)

	handler := transport.NewHandler(identity, quizzes, progressSvc, feed, cfg.Leaderboard.Limit, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting learn-activity on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
