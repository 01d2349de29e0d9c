// Command rally runs the race simulation service and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rally/internal/adapters/repository"
	service "github.com/okian/rally/internal/app"
	"github.com/okian/rally/internal/config"
	"github.com/okian/rally/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rally",
		Short:         "Race simulation and team settlement service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

// bootstrap loads configuration and initializes logging. Every subcommand
// starts here.
func bootstrap(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.SQLiteStore, error) {
	store, err := repository.Open(ctx, cfg.DatabasePath,
		repository.WithBusyTimeout(time.Duration(cfg.BusyTimeoutMS)*time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.DatabasePath, err)
	}
	return store, nil
}

func migrate(ctx context.Context, store *repository.SQLiteStore) error {
	applied, err := store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Get().Info(ctx, "migrations complete", logger.Int("applied", len(applied)), logger.Any("names", applied))
	return nil
}

func newService(cfg *config.Config, store repository.Store) *service.Service {
	return service.New(
		service.WithStore(store),
		service.WithLogger(logger.Get().Named("service")),
		service.WithPrizeCurve(cfg.PrizeSplit),
		service.WithDefaultTrack(cfg.DefaultTrack),
		service.WithStartingBalance(cfg.StartingBalance),
		service.WithSeed(cfg.RaceSeed),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithHistoryLimit(cfg.MaxHistoryLimit),
	)
}
