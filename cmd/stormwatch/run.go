package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the stormwatch HTTP service",
	Long: `Start the stormwatch HTTP service with the specified configuration.

The service evaluates scenarios posted to /v1/evaluate, manages stored
scenario records, records every evaluation in the evidence store and
serves health and metrics endpoints.

Examples:
  # Start with defaults and STORMWATCH_* environment overrides
  stormwatch run

  # Start with a config file
  stormwatch run --config /etc/stormwatch/config.yaml

  # Override listen address
  stormwatch run --listen 0.0.0.0:8080

  # Validate config without starting the service
  stormwatch run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	tel, err := newTelemetry(cfg, os.Stderr, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	printBanner(out, cfg)

	app, err := server.NewApp(cfg, tel)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close components", "error", err)
		}
	}()
	fmt.Fprintf(out, "✓ Engine %s ready (cache: %s, events: %s)\n", engine.Version, app.Cache.Name(), app.Publisher.Name())
	if app.Evidence != nil {
		fmt.Fprintf(out, "✓ Evidence store initialized (%s)\n", cfg.Evidence.Backend)
	}

	srv := server.NewServer(&cfg.Server, app)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	}

	printEndpoints(out, cfg, srv.Addr().String())

	if err := <-errChan; err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Stormwatch v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "Loading configuration from: %s\n", cfgFile)
	}
	fmt.Fprintln(w, "✓ Configuration loaded")

	slog.Debug("records backend", "backend", cfg.Records.Backend)
	if cfg.Evidence.Enabled {
		slog.Debug("evidence enabled", "backend", cfg.Evidence.Backend, "retention_days", cfg.Evidence.Retention.Days)
	}
}

func printEndpoints(w io.Writer, cfg *config.Config, addr string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "✓ Server listening on %s\n", addr)
	fmt.Fprintf(w, "✓ Evaluate endpoint: http://%s/v1/evaluate\n", addr)
	if cfg.Telemetry.Health.Enabled {
		fmt.Fprintf(w, "✓ Health endpoint: http://%s%s\n", addr, cfg.Telemetry.Health.LivenessPath)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
