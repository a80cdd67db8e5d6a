package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/stormwatch/pkg/evidence"
)

// JSONExporter writes evidence records as a JSON array.
type JSONExporter struct {
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records as one JSON array. An empty slice writes "[]".
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	if records == nil {
		records = []*evidence.EvidenceRecord{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}

// ExportStream writes records from recordsCh as a JSON array without
// holding them all in memory.
func (e *JSONExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.EvidenceRecord, w io.Writer) error {
	if _, err := io.WriteString(w, "["); err != nil {
		return evidence.NewExportError("json", 0, err)
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				closing := "]\n"
				if e.Pretty && count > 0 {
					closing = "\n]\n"
				}
				if _, err := io.WriteString(w, closing); err != nil {
					return evidence.NewExportError("json", count, err)
				}
				return nil
			}

			sep := ","
			if count == 0 {
				sep = ""
			}
			if e.Pretty {
				sep += "\n  "
			}
			if _, err := io.WriteString(w, sep); err != nil {
				return evidence.NewExportError("json", count, err)
			}

			data, err := e.marshal(record)
			if err != nil {
				return evidence.NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return evidence.NewExportError("json", count, err)
			}
			count++
		}
	}
}

func (e *JSONExporter) marshal(record *evidence.EvidenceRecord) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(record, "  ", "  ")
	}
	return json.Marshal(record)
}
