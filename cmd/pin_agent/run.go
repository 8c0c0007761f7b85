package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/logger"
	"github.com/jonathan/pin-pipeline/internal/observability"
	"github.com/jonathan/pin-pipeline/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run",
	Long: `Runs one cycle: topic discovery -> content generation -> blog publish -> pin creative -> pin post.

Configuration comes from defaults, the optional --config JSON file and the environment (.env is loaded).
Flags override all of them. A dry run stops after content generation and marks the topic used.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath    string
	runDryRun        bool
	runAllowReuse    bool
	runVerbose       bool
	runScheduledTime string
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (environment and flags override it)")
	runCommand.Flags().BoolVar(&runDryRun, "dry-run", false, "Stop after content generation; nothing is published")
	runCommand.Flags().BoolVar(&runAllowReuse, "allow-reuse", false, "Allow a topic that was already used")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print candidates and generated content")
	runCommand.Flags().StringVar(&runScheduledTime, "scheduled-time", "", "RFC 3339 time the trigger was scheduled for")

	rootCmd.AddCommand(runCommand)
}

// loadRunConfig merges the config layers with the flags that were set and
// validates the result.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = runDryRun
	}
	if cmd.Flags().Changed("allow-reuse") {
		cfg.AllowTopicReuse = runAllowReuse
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseScheduledTime(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --scheduled-time: %w", err)
	}
	return &t, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	scheduled, err := parseScheduledTime(runScheduledTime)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	printer := observability.NewPrinter(os.Stdout)
	verbosePrinter := printer
	if !runVerbose {
		verbosePrinter = nil
	}

	orchestrator, cleanup, err := pipeline.FromConfig(ctx, cfg, database, log, nil, verbosePrinter)
	if err != nil {
		return err
	}
	defer cleanup()

	result, runErr := orchestrator.Run(ctx, scheduled)
	if result != nil {
		printer.PrintRunSummary(result.Summary(runErr))
	}
	return runErr
}
