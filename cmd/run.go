package cmd

import (
	"context"
	"fmt"

	"visitor-sync/core/config"
	"visitor-sync/core/database"
	"visitor-sync/core/logger"
	"visitor-sync/core/storage"
	"visitor-sync/feature/access"
	"visitor-sync/feature/bookings"
	"visitor-sync/feature/cache"
	"visitor-sync/feature/identity"
	"visitor-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd performs a single reconciliation run and exits.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass and exit",
	Long: `Fetches active bookings, registers unknown patrons, creates
pre-registrations, and exits. Useful under cron or for manual catch-up runs.`,
	RunE: runOnce,
}

func init() {
	RootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	store := cache.NewStore(db)
	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate cache tables: %w", err)
	}

	source, err := bookings.NewClient(ctx, cfg.Bookings, l)
	if err != nil {
		return fmt.Errorf("failed to initialize calendar client: %w", err)
	}
	resolver, err := identity.NewResolver(cfg.Identity, l)
	if err != nil {
		return fmt.Errorf("failed to initialize identity resolver: %w", err)
	}
	registrar, err := access.NewClient(ctx, cfg.Access, l)
	if err != nil {
		return fmt.Errorf("failed to initialize access-control client: %w", err)
	}

	var archiver *sync.Archiver
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		archiver = sync.NewArchiver(client, cfg.Storage)
	}

	service := sync.NewService(source, resolver, registrar, store, archiver, l)

	report, err := service.RunOnce(ctx)
	if report != nil {
		l.Info("Run report",
			zap.String("run_id", report.RunID),
			zap.Int("fetched", report.Fetched),
			zap.Int("already_processed", report.AlreadyProcessed),
			zap.Int("visitors_registered", report.VisitorsRegistered),
			zap.Int("preregs_created", report.PreregsCreated),
			zap.Int("skipped", report.BookingsSkipped),
			zap.Strings("errors", report.Errors),
		)
	}
	return err
}
