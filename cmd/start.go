package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"visitor-sync/core/config"
	"visitor-sync/core/database"
	"visitor-sync/core/logger"
	"visitor-sync/core/middleware/auth"
	"visitor-sync/core/middleware/rayid"
	"visitor-sync/core/scheduler"
	"visitor-sync/core/storage"
	"visitor-sync/feature/access"
	"visitor-sync/feature/bookings"
	"visitor-sync/feature/cache"
	"visitor-sync/feature/identity"
	"visitor-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the visitor sync service",
	Long:  `Runs the reconciliation loop on the configured interval and serves the admin endpoints.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 3. Connect to the idempotency cache database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		store := cache.NewStore(db)
		if err := store.Migrate(); err != nil {
			logg.Fatal("Failed to migrate cache tables", zap.Error(err))
		}

		// 4. Initialize upstream clients. Each constructor authenticates
		// eagerly so misconfiguration surfaces at startup.
		source, err := bookings.NewClient(ctx, cfg.Bookings, logg)
		if err != nil {
			logg.Fatal("Failed to initialize calendar client", zap.Error(err))
		}
		resolver, err := identity.NewResolver(cfg.Identity, logg)
		if err != nil {
			logg.Fatal("Failed to initialize identity resolver", zap.Error(err))
		}
		registrar, err := access.NewClient(ctx, cfg.Access, logg)
		if err != nil {
			logg.Fatal("Failed to initialize access-control client", zap.Error(err))
		}

		// 5. Initialize report archiving (optional)
		var archiver *sync.Archiver
		if cfg.Storage.Enabled {
			client, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			archiver = sync.NewArchiver(client, cfg.Storage)
			logg.Info("Report archiving enabled", zap.String("bucket", cfg.Storage.Bucket))
		}

		service := sync.NewService(source, resolver, registrar, store, archiver, logg)

		// 6. Admin server (optional)
		var app *fiber.App
		if cfg.Server.Enabled {
			app = fiber.New(fiber.Config{
				DisableStartupMessage: true, // We will log our own startup message
			})

			// RayID must be first to trace everything
			app.Use(rayid.New())

			app.Use(func(c *fiber.Ctx) error {
				l := logger.WithRayID(logg, c)
				l.Info("Request started",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.String("ip", c.IP()),
				)
				err := c.Next()
				if err != nil {
					l.Error("Request error", zap.Error(err))
				}
				return err
			})

			app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

			sync.NewHandler(service, store, registrar, logg).RegisterRoutes(app)

			go func() {
				logg.Info("Starting admin server", zap.String("port", cfg.Server.Port))
				if err := app.Listen(":" + cfg.Server.Port); err != nil {
					logg.Fatal("Server failed to start", zap.Error(err))
				}
			}()
		}

		// 7. Run loop
		go scheduler.Run(ctx, cfg.Scheduler.Interval(), logg, func(ctx context.Context) error {
			_, err := service.RunOnce(ctx)
			return err
		})

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		cancel()
		if app != nil {
			_ = app.Shutdown()
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
