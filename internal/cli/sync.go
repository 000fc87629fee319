package cli

import (
	"github.com/spf13/cobra"

	"learn-activity/internal/config"
	"learn-activity/internal/content"
	"learn-activity/internal/infra/postgres"
)

// NewSyncCmd pushes the built-in weekly content into the database.
func NewSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the current week's lessons and quizzes into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := runMigrations(cmd.Context(), db); err != nil {
				return err
			}
			syncer := postgres.NewSyncer(db, cfg.Rules())
			return syncer.Sync(cmd.Context(), content.Current())
		},
	}
}
