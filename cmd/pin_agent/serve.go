package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/logger"
	"github.com/jonathan/pin-pipeline/internal/observability"
	"github.com/jonathan/pin-pipeline/internal/pipeline"
	"github.com/jonathan/pin-pipeline/internal/server"
	"github.com/jonathan/pin-pipeline/internal/server/ratelimit"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the trigger and health server",
	Long: `Start an HTTP server with GET /health, a JWT-protected POST /runs trigger, read-only run
history under /runs and prometheus metrics on /metrics.

An invalid configuration does not stop the server: /health answers 503 with the reason and
triggers are refused.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	jwtConfig, err := cfg.TriggerAuth()
	if err != nil {
		return fmt.Errorf("trigger auth: %w", err)
	}

	metrics := observability.NewMetrics()
	var (
		runner server.Runner
		store  server.Store
	)
	configErr := cfg.Validate()
	if configErr != nil {
		log.Warn("configuration invalid, runs disabled", "error", configErr)
	} else {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		store = database

		orchestrator, cleanup, err := pipeline.FromConfig(ctx, cfg, database, log, metrics, nil)
		if err != nil {
			configErr = err
			log.Warn("pipeline unavailable, runs disabled", "error", err)
		} else {
			defer cleanup()
			runner = orchestrator
		}
	}

	srv, err := server.New(server.Config{
		Port:      cfg.Port,
		JWT:       jwtConfig,
		RateLimit: ratelimit.LoadConfig(),
		ConfigErr: configErr,
	}, runner, store, log, metrics)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
