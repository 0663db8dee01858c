package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/outbox"
	"example.com/fittrack/internal/persistence/migrations"
	"example.com/fittrack/internal/persistence/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.Apply(cmd.Context(), pool)
			if err != nil {
				return err
			}
			a.logger.Info("migrations applied", zap.Strings("names", applied))
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the embedded migrations without applying them")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-exercises",
		Short: "Upsert the built-in exercise catalog by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			catalog := domain.DefaultCatalog()
			if err := domain.NewCatalogService(postgres.NewCatalogRepository(pool)).Seed(cmd.Context(), catalog); err != nil {
				return err
			}
			a.logger.Info("exercise catalog seeded", zap.Int("count", len(catalog)))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d exercise(s)\n", len(catalog))
			return nil
		},
	}
}

func newOutboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and repair the event outbox",
	}

	var (
		batch      int
		maxRetries int
		baseDelay  time.Duration
	)
	replay := &cobra.Command{
		Use:   "replay",
		Short: "Requeue dead-lettered events that are due for another attempt",
		Long: `Requeue dead-lettered events whose backoff has elapsed.

Entries that have been retried --max-retries times are quarantined and left
for manual inspection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch <= 0 {
				return fmt.Errorf("--batch must be positive")
			}
			pool, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := outbox.NewReplayer(pool, maxRetries, baseDelay).RunOnce(cmd.Context(), batch)
			if err != nil {
				return err
			}
			a.logger.Info("outbox replay finished",
				zap.Int("requeued", res.Requeued),
				zap.Int("rescheduled", res.Rescheduled),
				zap.Int("quarantined", res.Quarantined),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "requeued=%d rescheduled=%d quarantined=%d\n",
				res.Requeued, res.Rescheduled, res.Quarantined)
			return nil
		},
	}
	replay.Flags().IntVar(&batch, "batch", 50, "maximum dead-letter entries to examine")
	replay.Flags().IntVar(&maxRetries, "max-retries", 5, "attempts before an entry is quarantined")
	replay.Flags().DurationVar(&baseDelay, "base-delay", 30*time.Second, "initial backoff between attempts")

	cmd.AddCommand(replay)
	return cmd
}
