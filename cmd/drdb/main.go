package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/systmms/drdb/cmd/drdb/commands"
	"github.com/systmms/drdb/internal/config"
	"github.com/systmms/drdb/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		settingsFile    string
		envFile         string
		logFile         string
		metricsTextfile string
		noColor         bool
		debug           bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "drdb",
		Short: "Resolve disaster-recovery database settings from the environment and a secret store",
		Long: `drdb assembles database connection settings from environment variables
and a secret store, opens connections with them, and provisions the
application database.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.LogOptions = logging.Options{Debug: debug, NoColor: noColor, File: logFile}
			logger, err := logging.NewWithOptions(cfg.LogOptions)
			if err != nil {
				return err
			}

			cfg.Path = settingsFile
			cfg.EnvFile = envFile
			cfg.MetricsTextfile = metricsTextfile
			cfg.Debug = debug
			cfg.Logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = cfg.Logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "Settings file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from a dotenv file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewConfigCommand(cfg),
		commands.NewDoctorCommand(cfg),
		commands.NewPingCommand(cfg),
		commands.NewProvisionCommand(cfg),
		commands.NewStoresCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}
