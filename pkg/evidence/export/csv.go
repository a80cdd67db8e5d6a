package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"mercator-hq/stormwatch/pkg/evidence"
)

// listSeparator joins list columns inside one CSV cell.
const listSeparator = ";"

// flushEvery is how often ExportStream flushes the CSV writer.
const flushEvery = 100

// CSVExporter writes evidence records as CSV with list columns joined by
// semicolons.
type CSVExporter struct {
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header returns the CSV column names.
func Header() []string {
	return []string{
		"id", "request_id",
		"scenario_id", "hash", "engine_version",
		"allowed_actions", "blocked_actions", "escalation_flags", "critical_load_at_risk",
		"etr_band", "etr_confidence", "warning_count",
		"cache_hit", "source", "duration_ms",
		"evaluated_at", "recorded_at",
	}
}

// Export writes records to w.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

// ExportStream writes records from recordsCh, flushing periodically.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.EvidenceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return evidence.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			writer.Flush()
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
				return nil
			}

			if err := writer.Write(recordToRow(record)); err != nil {
				return evidence.NewExportError("csv", count, err)
			}
			count++

			if count%flushEvery == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", count, err)
				}
			}
		}
	}
}

func recordToRow(r *evidence.EvidenceRecord) []string {
	return []string{
		r.ID,
		r.RequestID,
		r.ScenarioID,
		r.Hash,
		r.EngineVersion,
		strings.Join(r.AllowedActions, listSeparator),
		strings.Join(r.BlockedActions, listSeparator),
		strings.Join(r.EscalationFlags, listSeparator),
		strconv.FormatBool(r.CriticalLoadAtRisk),
		r.ETRBand,
		strconv.FormatFloat(r.ETRConfidence, 'f', 2, 64),
		strconv.Itoa(r.WarningCount),
		strconv.FormatBool(r.CacheHit),
		string(r.Source),
		strconv.FormatInt(r.Duration.Milliseconds(), 10),
		formatTime(r.EvaluatedAt),
		formatTime(r.RecordedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
