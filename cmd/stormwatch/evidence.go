package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/evidence/export"
	"mercator-hq/stormwatch/pkg/evidence/query"
	"mercator-hq/stormwatch/pkg/evidence/retention"
	"mercator-hq/stormwatch/pkg/evidence/storage"
)

var evidenceFlags struct {
	backend       string
	timeRange     string
	scenario      string
	hash          string
	band          string
	source        string
	flag          string
	blockedAction string
	cacheHit      string
	sortBy        string
	sortOrder     string
	limit         int
	offset        int
	format        string
	pretty        bool
	output        string
	days          int
	maxRecords    int64
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Query the evaluation audit trail",
	Long: `Query, export and prune evidence records.

Every evaluation, whether requested over HTTP, from the command line or
against a stored scenario record, is recorded with its deterministic hash,
blocked actions, escalation flags and ETR band.

Subcommands:
  query   - Query evidence records with filters
  export  - Export evidence records as JSON or CSV
  prune   - Delete records outside the retention policy`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query evidence records with filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2025-11-19T00:00:00Z/2025-11-20T00:00:00Z"

Examples:
  # Records for one scenario
  stormwatch evidence query --scenario storm-7

  # Evaluations that raised a flag, as CSV
  stormwatch evidence query --flag critical_load_at_risk --format csv

  # Records with a given hash
  stormwatch evidence query --hash 3f1a...`,
	RunE: queryEvidence,
}

var evidenceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export evidence records",
	Long: `Export evidence records matching the filters as JSON or CSV.

Examples:
  # Export the last day as CSV
  stormwatch evidence export --format csv --time-range "2025-11-19T00:00:00Z/2025-11-20T00:00:00Z" -o evidence.csv

  # Pretty JSON to stdout
  stormwatch evidence export --pretty`,
	RunE: exportEvidence,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Prune evidence records",
	Long: `Delete records older than the retention period and the oldest records
beyond the maximum count. Flags override the configured retention policy.

Examples:
  # Apply the configured retention policy
  stormwatch evidence prune

  # Keep 30 days and at most 10000 records
  stormwatch evidence prune --days 30 --max-records 10000`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceExportCmd, evidencePruneCmd)

	evidenceCmd.PersistentFlags().StringVar(&evidenceFlags.backend, "backend", "", "backend: sqlite, memory (uses config if not specified)")

	for _, cmd := range []*cobra.Command{evidenceQueryCmd, evidenceExportCmd} {
		f := cmd.Flags()
		f.StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		f.StringVar(&evidenceFlags.scenario, "scenario", "", "filter by scenario ID")
		f.StringVar(&evidenceFlags.hash, "hash", "", "filter by deterministic hash")
		f.StringVar(&evidenceFlags.band, "band", "", "filter by ETR band (LOW, MEDIUM, HIGH, UNKNOWN)")
		f.StringVar(&evidenceFlags.source, "source", "", "filter by source (http, cli, record)")
		f.StringVar(&evidenceFlags.flag, "flag", "", "filter by escalation flag")
		f.StringVar(&evidenceFlags.blockedAction, "blocked-action", "", "filter by blocked action type")
		f.StringVar(&evidenceFlags.cacheHit, "cache-hit", "", "filter by cache hit (true, false)")
		f.StringVar(&evidenceFlags.sortBy, "sort-by", "", "sort field: evaluated_at, recorded_at, etr_confidence")
		f.StringVar(&evidenceFlags.sortOrder, "order", "", "sort order: asc, desc")
		f.IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
		f.StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	}
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 0, "max results (default from config)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")

	evidenceExportCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 0, "max records (default: configured maximum)")
	evidenceExportCmd.Flags().StringVar(&evidenceFlags.format, "format", "json", "export format: json, csv")
	evidenceExportCmd.Flags().BoolVar(&evidenceFlags.pretty, "pretty", false, "indent JSON output")

	evidencePruneCmd.Flags().IntVar(&evidenceFlags.days, "days", -1, "retention days (0 keeps records forever, default from config)")
	evidencePruneCmd.Flags().Int64Var(&evidenceFlags.maxRecords, "max-records", -1, "maximum records kept (0 means unlimited, default from config)")
}

func openEvidence(command string) (*config.Config, evidence.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	evCfg := cfg.Evidence
	if evidenceFlags.backend != "" {
		evCfg.Backend = evidenceFlags.backend
	}
	store, err := storage.New(&evCfg, nil)
	if err != nil {
		return nil, nil, cli.NewCommandError(command, err)
	}
	return cfg, store, nil
}

func buildEvidenceQuery() (*evidence.Query, error) {
	q := &evidence.Query{
		ScenarioID:    evidenceFlags.scenario,
		Hash:          evidenceFlags.hash,
		ETRBand:       strings.ToUpper(evidenceFlags.band),
		Source:        evidence.Source(evidenceFlags.source),
		Flag:          evidenceFlags.flag,
		BlockedAction: evidenceFlags.blockedAction,
		SortBy:        evidenceFlags.sortBy,
		SortOrder:     evidenceFlags.sortOrder,
		Limit:         evidenceFlags.limit,
		Offset:        evidenceFlags.offset,
	}

	if evidenceFlags.cacheHit != "" {
		v, err := strconv.ParseBool(evidenceFlags.cacheHit)
		if err != nil {
			return nil, fmt.Errorf("invalid --cache-hit %q: must be true or false", evidenceFlags.cacheHit)
		}
		q.CacheHit = &v
	}

	if evidenceFlags.timeRange != "" {
		start, end, err := parseTimeRange(evidenceFlags.timeRange)
		if err != nil {
			return nil, err
		}
		q.StartTime, q.EndTime = &start, &end
	}
	return q, nil
}

func parseTimeRange(s string) (time.Time, time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range format (expected: start/end)")
	}
	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}
	return start, end, nil
}

// openOutput returns stdout when path is empty.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(evidenceFlags.format)
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}
	q, err := buildEvidenceQuery()
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}

	cfg, store, err := openEvidence("evidence query")
	if err != nil {
		return err
	}
	defer store.Close()

	out, closeOut, err := openOutput(cmd, evidenceFlags.output)
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}
	defer closeOut()

	if err := runEvidenceQuery(cmd.Context(), out, store, q, &cfg.Evidence.Query, format); err != nil {
		return cli.NewCommandError("evidence query", err)
	}
	return nil
}

func runEvidenceQuery(ctx context.Context, w io.Writer, store evidence.Storage, q *evidence.Query, limits *config.QueryConfig, format cli.OutputFormat) error {
	if err := query.Validate(q, limits); err != nil {
		return err
	}
	query.ApplyDefaults(q, limits)

	records, err := store.Query(ctx, q)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	switch format {
	case cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(w, records)
	case cli.FormatCSV:
		return export.NewCSVExporter(true).Export(ctx, records, w)
	default:
		total, err := store.Count(ctx, q)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		if err := cli.NewFormatter(cli.FormatText).FormatTo(w, evidenceTable(records)); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "\n%d of %d matching records (offset %d)\n", len(records), total, q.Offset)
		return err
	}
}

func exportEvidence(cmd *cobra.Command, args []string) error {
	exporter, err := export.ForFormat(evidenceFlags.format, evidenceFlags.pretty)
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}
	q, err := buildEvidenceQuery()
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}

	cfg, store, err := openEvidence("evidence export")
	if err != nil {
		return err
	}
	defer store.Close()

	out, closeOut, err := openOutput(cmd, evidenceFlags.output)
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}

	var progress cli.ProgressReporter
	if evidenceFlags.output != "" {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "Exporting")
	}

	err = runEvidenceExport(cmd.Context(), out, store, exporter, q, &cfg.Evidence.Query, progress)
	if closeErr := closeOut(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return cli.NewCommandError("evidence export", err)
	}
	return nil
}

func runEvidenceExport(ctx context.Context, w io.Writer, store evidence.Storage, exporter export.StreamExporter, q *evidence.Query, limits *config.QueryConfig, progress cli.ProgressReporter) error {
	if q.Limit == 0 {
		q.Limit = limits.MaxLimit
	}
	if err := query.Validate(q, limits); err != nil {
		return err
	}
	query.ApplyDefaults(q, limits)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recordsCh, errCh, err := store.QueryStream(ctx, q)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if progress != nil {
		total, err := store.Count(ctx, q)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		progress.Start(min(max(total-int64(q.Offset), 0), int64(q.Limit)))
		recordsCh = countRecords(ctx, recordsCh, progress.Update)
	}

	if err := exporter.ExportStream(ctx, recordsCh, w); err != nil {
		if progress != nil {
			progress.Error(err)
		}
		return fmt.Errorf("export failed: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("export stream failed: %w", err)
	}
	if progress != nil {
		progress.Finish()
	}
	return nil
}

// countRecords forwards records from in, reporting the running count.
func countRecords(ctx context.Context, in <-chan *evidence.EvidenceRecord, update func(int64)) <-chan *evidence.EvidenceRecord {
	out := make(chan *evidence.EvidenceRecord)
	go func() {
		defer close(out)
		var n int64
		for r := range in {
			select {
			case out <- r:
				n++
				update(n)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	cfg, store, err := openEvidence("evidence prune")
	if err != nil {
		return err
	}
	defer store.Close()

	retCfg := cfg.Evidence.Retention
	if evidenceFlags.days >= 0 {
		retCfg.Days = evidenceFlags.days
	}
	if evidenceFlags.maxRecords >= 0 {
		retCfg.MaxRecords = evidenceFlags.maxRecords
	}

	deleted, err := retention.NewPruner(store, &retCfg, nil, nil).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("evidence prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d evidence records (retention: %d days, max records: %d)\n", deleted, retCfg.Days, retCfg.MaxRecords)
	return nil
}

// evidenceTable renders records as a summary table.
type evidenceTable []*evidence.EvidenceRecord

func (t evidenceTable) Header() []string {
	return []string{"EVALUATED_AT", "SCENARIO", "ETR", "BLOCKED", "FLAGS", "SOURCE", "CACHE", "HASH"}
}

func (t evidenceTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		flags := "-"
		if len(r.EscalationFlags) > 0 {
			flags = strings.Join(r.EscalationFlags, ",")
		}
		hash := r.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows = append(rows, []string{
			r.EvaluatedAt.UTC().Format(time.RFC3339),
			r.ScenarioID,
			r.ETRBand,
			strconv.Itoa(len(r.BlockedActions)),
			flags,
			string(r.Source),
			strconv.FormatBool(r.CacheHit),
			hash,
		})
	}
	return rows
}
