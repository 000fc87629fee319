package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"learn-activity/internal/auth"
	"learn-activity/internal/config"
	"learn-activity/internal/domain"
)

// NewTokenCmd mints a signed token for local development, standing in for
// the companion bot that normally issues them.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID   string
		username string
		avatar   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token for the given Discord identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("jwt secret not configured")
			}
			if userID == "" {
				return fmt.Errorf("--user-id is required")
			}

			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			token, err := tokens.Issue(domain.Profile{
				DiscordID: userID,
				Username:  username,
				Avatar:    avatar,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Discord user ID")
	cmd.Flags().StringVar(&username, "username", "dev", "Discord username")
	cmd.Flags().StringVar(&avatar, "avatar", "", "Discord avatar hash")
	return cmd
}
