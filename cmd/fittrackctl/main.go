// Command fittrackctl runs operational tasks against the fittrack database:
// schema migrations, catalog seeding and outbox dead-letter replay.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/fittrack/internal/config"
	"example.com/fittrack/internal/logging"
	"example.com/fittrack/internal/persistence/postgres"
)

type app struct {
	cfg         config.Config
	postgresURL string
	logger      *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "fittrackctl",
		Short:         "Operate the fittrack database and event outbox",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.cfg.Env)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.postgresURL, "postgres-url", cfg.PostgresURL, "Postgres connection string (defaults to POSTGRES_URL)")

	root.AddCommand(newMigrateCmd(a), newSeedCmd(a), newOutboxCmd(a))
	return root
}

func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if a.postgresURL == "" {
		return nil, fmt.Errorf("postgres url is required: set POSTGRES_URL or --postgres-url")
	}
	return postgres.Connect(ctx, a.postgresURL)
}
