package cmd

import (
	"context"
	"fmt"
	"time"

	"eventhub/config"
	"eventhub/internal/adapters/auth"
	"eventhub/internal/repository/postgres"
	"eventhub/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	var migrateFirst bool
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, tags and events",
		Long: `Creates two demo users (alice@example.com, bob@example.com), four tags and four
events with tag links and memberships. Running it again leaves existing data untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			logger := config.NewLogger()
			if migrateFirst {
				if err := postgres.MigrateUp(cfg.DBUrl); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			db, err := postgres.Open(ctx, cfg.DBUrl, cfg.DBMaxOpenConns)
			if err != nil {
				return err
			}
			defer db.Close()

			seeder := &seed.Seeder{
				Users:        postgres.NewUserRepository(db),
				Events:       postgres.NewEventRepository(db),
				Tags:         postgres.NewTagRepository(db),
				Participants: postgres.NewParticipantRepository(db),
				Hasher:       auth.NewBcryptHasher(auth.DefaultBcryptCost),
				Logger:       logger,
			}
			res, err := seeder.Seed(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintln(out, "demo events already present, nothing to do")
				return nil
			}
			fmt.Fprintf(out, "seeded %d users, %d tags, %d events\n", len(res.Users), res.Tags, res.Events)
			for key, id := range res.Users {
				fmt.Fprintf(out, "  %s: %s\n", key, id)
			}
			return nil
		},
	}
	seedCmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before seeding")
	return seedCmd
}
