package export

import (
	"context"
	"fmt"
	"io"

	"mercator-hq/stormwatch/pkg/evidence"
)

// StreamExporter writes records from a channel.
type StreamExporter interface {
	evidence.Exporter
	ExportStream(ctx context.Context, recordsCh <-chan *evidence.EvidenceRecord, w io.Writer) error
}

// ForFormat returns the exporter for "json" or "csv".
func ForFormat(format string, pretty bool) (StreamExporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(pretty), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q: must be 'json' or 'csv'", format)
	}
}
