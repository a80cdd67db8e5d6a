package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/telemetry"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stormwatch",
	Short: "Stormwatch - deterministic outage policy evaluation",
	Long: `Stormwatch evaluates grid outage scenarios against operational safety
rules. For a scenario it returns:
  - Allowed and blocked field actions with reasons
  - Escalation flags for operators
  - An estimated time to restoration band with confidence
  - A deterministic hash of the normalized input

The same engine serves the HTTP API (stormwatch run) and the command line
(stormwatch evaluate, stormwatch watch).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code for its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and STORMWATCH_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the global configuration once per process.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, cli.NewConfigError("", "configuration not loaded")
	}
	return cfg, nil
}

// newTelemetry builds telemetry for a command and installs its logger as
// the default. Commands other than run log warnings only unless --verbose
// is set.
func newTelemetry(cfg *config.Config, logs io.Writer, quiet bool) (*telemetry.Telemetry, error) {
	tcfg := cfg.Telemetry
	switch {
	case verbose:
		tcfg.Logging.Level = "debug"
	case quiet:
		tcfg.Logging.Level = "warn"
	}

	tel, err := telemetry.New(&tcfg, buildInfo(), telemetry.WithLogWriter(logs))
	if err != nil {
		return nil, cli.NewConfigError("telemetry", err.Error())
	}
	slog.SetDefault(tel.Logger().Slog())
	return tel, nil
}
