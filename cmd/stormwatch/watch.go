package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/scenario/source"
	"mercator-hq/stormwatch/pkg/server"
)

var watchFlags struct {
	format     string
	debounce   time.Duration
	noEvidence bool
}

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Re-evaluate scenario files when they change",
	Long: `Evaluate every scenario JSON or YAML file under a file or directory, then watch
it and re-evaluate files as they are created or written.

Text output prints one summary line per evaluation. JSON output prints the
full response as one JSON document per line.

Examples:
  # Watch a directory
  stormwatch watch ./scenarios

  # Full responses as JSON lines
  stormwatch watch ./scenarios --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchFlags.format, "format", "text", "output format: text, json")
	watchCmd.Flags().DurationVar(&watchFlags.debounce, "debounce", 200*time.Millisecond, "quiet period before re-evaluating changed files")
	watchCmd.Flags().BoolVar(&watchFlags.noEvidence, "no-evidence", false, "do not record evaluations in the evidence store")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(watchFlags.format)
	if err != nil || format == cli.FormatCSV {
		return cli.NewCommandError("watch", fmt.Errorf("unsupported format %q: must be 'text' or 'json'", watchFlags.format))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlags.noEvidence {
		cfg.Evidence.Enabled = false
	}

	tel, err := newTelemetry(cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer tel.Shutdown(context.Background())

	app, err := server.NewApp(cfg, tel)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer app.Close()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	logger := tel.Logger().Slog()
	w, err := source.NewWatcher(&source.WatcherConfig{Path: args[0], DebounceInterval: watchFlags.debounce}, logger)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}

	sess := newWatchSession(cmd.OutOrStdout(), app.Service, source.NewFileSource(args[0], logger), format)
	if err := sess.evaluateAll(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}
	if err := w.Watch(ctx, func(paths []string) { sess.evaluatePaths(ctx, paths) }); err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}

// watchSession evaluates scenario files and prints results. Writes are
// serialized because debounce callbacks run on their own goroutines.
type watchSession struct {
	mu     sync.Mutex
	out    io.Writer
	svc    evaluator
	source *source.FileSource
	format cli.OutputFormat
}

func newWatchSession(out io.Writer, svc evaluator, src *source.FileSource, format cli.OutputFormat) *watchSession {
	return &watchSession{out: out, svc: svc, source: src, format: format}
}

func (s *watchSession) evaluateAll(ctx context.Context) error {
	files, err := s.source.Load(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		s.evaluate(ctx, f)
	}
	return nil
}

func (s *watchSession) evaluatePaths(ctx context.Context, paths []string) {
	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		s.evaluate(ctx, s.source.LoadFile(p))
	}
}

func (s *watchSession) evaluate(ctx context.Context, f source.File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Err != nil {
		fmt.Fprintf(s.out, "%s  error: %v\n", f.Path, f.Err)
		return
	}

	resp := s.svc.Evaluate(ctx, f.Input, advisor.Meta{RequestID: uuid.NewString(), Source: evidence.SourceCLI})

	var err error
	if s.format == cli.FormatJSON {
		err = writeJSON(s.out, resp, false)
	} else {
		_, err = fmt.Fprintln(s.out, summaryLine(f.Path, resp))
	}
	if err != nil {
		slog.Error("failed to write evaluation", "path", f.Path, "error", err)
	}
}

func summaryLine(path string, resp *engine.Response) string {
	flags := "-"
	if len(resp.EscalationFlags) > 0 {
		flags = strings.Join(resp.EscalationFlags, ",")
	}
	hash := resp.Meta.DeterministicHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return fmt.Sprintf("%s  scenario=%s etr=%s confidence=%.2f blocked=%d flags=%s hash=%s",
		path,
		resp.Meta.ScenarioID,
		resp.ETR.Band,
		resp.ETR.Confidence,
		len(resp.BlockedActions),
		flags,
		hash,
	)
}
