package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/C-Ford17/eventos-app-sub001/config"
	"github.com/C-Ford17/eventos-app-sub001/internal/messaging"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker to persist queued notifications and expire stale pending reservations`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return err
	}

	// Configure logging
	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize Service Bus client; the worker cannot run the
	// notification consumer without it but the sweep still works.
	bus, err := messaging.NewServiceBusClient(cfg.ServiceBus)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus client, running sweep only")
		bus = nil
	}

	// Wire repositories and services
	app, err := buildApplication(cfg, db, readOnlyDB, bus)
	if err != nil {
		return err
	}

	// Start the notification consumer
	if bus != nil {
		g.Go(func() error {
			log.Info().Str("queue", cfg.ServiceBus.QueueName).Msg("Starting Service Bus notification processor")
			return bus.ProcessMessages(ctx, app.dispatcher.ProcessNotificationMessage)
		})
	}

	// Start the stale-reservation sweep
	g.Go(func() error {
		log.Info().
			Dur("interval", cfg.Reservations.SweepInterval).
			Dur("pending_ttl", cfg.Reservations.PendingTTL).
			Msg("Starting stale reservation sweep")

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Reservations.SweepInterval),
			gocron.NewTask(func() {
				if err := app.svcs.Reservation.ExpireStale(ctx); err != nil {
					log.Error().Err(err).Msg("Failed to expire stale reservations")
				}
			}),
		)
		if err != nil {
			return err
		}

		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
