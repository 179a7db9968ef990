package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/C-Ford17/eventos-app-sub001/config"
	"github.com/C-Ford17/eventos-app-sub001/internal/api"
	"github.com/C-Ford17/eventos-app-sub001/internal/messaging"
	"github.com/C-Ford17/eventos-app-sub001/internal/tracing"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for the event catalog, reservations, credential validation and moderation`,
	RunE:  runAPI,
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

func runAPI(cmd *cobra.Command, args []string) error {
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

	// Initialize database connections
	db, readOnlyDB, err := initDatabases(cfg)
	if err != nil {
		return err
	}

	// Initialize tracer
	tracer, err := tracing.NewTracer(cfg.Tracing)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
	}

	// Initialize Service Bus client for notification publishing
	bus, err := messaging.NewServiceBusClient(cfg.ServiceBus)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Service Bus client, notifications will be written directly")
		bus = nil
	}

	// Wire repositories and services
	app, err := buildApplication(cfg, db, readOnlyDB, bus)
	if err != nil {
		return err
	}

	// Initialize and start the server
	server := api.NewServer(cfg, app.svcs, app.repos, app.collector, tracer)

	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Server error")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	if bus != nil {
		if err := bus.Close(); err != nil {
			log.Error().Err(err).Msg("Service Bus close error")
		}
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
