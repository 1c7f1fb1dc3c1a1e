package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/nvandessel/cable/internal/config"
	"github.com/nvandessel/cable/internal/logging"
	"github.com/nvandessel/cable/internal/store"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cable",
		Short: "Cable - compartment models from neuron skeletons",
		Long: `cable turns a neuron skeleton (SWC) into a multi-compartment model.

It validates the skeleton, decomposes it into unbranched sections,
maps every node to a section location, attaches stimuli, synapses and
recorders, and runs simulations on a shared clock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newBuildCmd(),
		newLocateCmd(),
		newRunCmd(),
		newRunsCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// addGlobalFlags registers the persistent flags every subcommand reads.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.cable/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: warn, info, debug, trace")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

// loadConfig resolves configuration from --config or the default locations,
// then applies --log-level and --no-color.
func loadConfig(cmd *cobra.Command) (*config.CableConfig, error) {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	path, _ := cmd.Flags().GetString("config")

	var cfg *config.CableConfig
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the operational logger writing to the command's stderr.
func newLogger(cmd *cobra.Command, cfg *config.CableConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// openJournal opens ~/.cable/journal.jsonl when the level is debug or trace.
// Returns nil otherwise; the journal is nil-safe.
func openJournal(cfg *config.CableConfig) *logging.RunJournal {
	dir, err := store.GlobalCablePath()
	if err != nil {
		return nil
	}
	return logging.NewRunJournal(dir, cfg.Logging.Level)
}

// openStore opens the configured SQLite result store.
func openStore(cfg *config.CableConfig) (*store.SQLiteResultStore, error) {
	s, err := store.NewSQLiteResultStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// signalContext returns a context cancelled on interrupt or termination.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		stopSignals(sigCh)
		cancel()
	}
}

// jsonOutput reports whether --json was set.
func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
