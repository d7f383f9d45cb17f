package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"visitor-sync/core/config"
	"visitor-sync/core/database"
	"visitor-sync/core/logger"
	"visitor-sync/feature/cache"

	"github.com/spf13/cobra"
)

var yesConfirm bool

// cacheCmd is the parent command for cache administration.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Administer the idempotency cache",
}

// cacheClearCmd wipes the appointments table so every known booking is
// re-processed on the next run.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the appointment cache (forces full re-processing)",
	Long: `Deletes every appointment row from the idempotency cache.

The next run treats all active bookings as new. Visitor registrations are
idempotent by barcode, so patrons are not duplicated, but every booking
gets a fresh pre-registration.

Examples:
  # Interactive confirmation
  visitor-sync cache clear

  # Auto-confirm (non-interactive)
  visitor-sync cache clear --yes`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	RootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	store := cache.NewStore(db)
	if err := store.ClearAppointments(ctx); err != nil {
		return fmt.Errorf("failed to clear appointment cache: %w", err)
	}

	l.Info("Appointment cache cleared")
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
