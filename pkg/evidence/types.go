package evidence

import (
	"context"
	"io"
	"time"
)

// Source identifies how an evaluation was requested.
type Source string

const (
	SourceHTTP   Source = "http"
	SourceCLI    Source = "cli"
	SourceRecord Source = "record"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceHTTP, SourceCLI, SourceRecord:
		return true
	}
	return false
}

// EvidenceRecord is the audit entry for one evaluation. It carries enough
// of the response to reconstruct what was advised and under which engine
// version, without storing the full input.
type EvidenceRecord struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`

	ScenarioID    string `json:"scenario_id"`
	Hash          string `json:"hash"`
	EngineVersion string `json:"engine_version"`

	AllowedActions     []string `json:"allowed_actions"`
	BlockedActions     []string `json:"blocked_actions"`
	EscalationFlags    []string `json:"escalation_flags"`
	CriticalLoadAtRisk bool     `json:"critical_load_at_risk"`

	ETRBand       string  `json:"etr_band"`
	ETRConfidence float64 `json:"etr_confidence"`
	WarningCount  int     `json:"warning_count"`

	CacheHit bool          `json:"cache_hit"`
	Source   Source        `json:"source"`
	Duration time.Duration `json:"duration"`

	EvaluatedAt time.Time `json:"evaluated_at"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Query filters evidence records. Zero-valued fields do not filter.
type Query struct {
	// Inclusive bounds on EvaluatedAt.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	IDs        []string `json:"ids,omitempty"`
	ScenarioID string   `json:"scenario_id,omitempty"`
	Hash       string   `json:"hash,omitempty"`
	ETRBand    string   `json:"etr_band,omitempty"`
	Source     Source   `json:"source,omitempty"`

	// Flag matches records that raised the escalation flag.
	Flag string `json:"flag,omitempty"`

	// BlockedAction matches records that blocked the action type.
	BlockedAction string `json:"blocked_action,omitempty"`

	CacheHit *bool `json:"cache_hit,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	SortBy    string `json:"sort_by,omitempty"`    // "evaluated_at", "recorded_at", "etr_confidence"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for evidence storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an evidence record.
	Store(ctx context.Context, record *EvidenceRecord) error

	// Query retrieves evidence records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*EvidenceRecord, error)

	// QueryStream delivers matching records on a channel. Both channels are
	// closed when the query completes; at most one error is sent.
	QueryStream(ctx context.Context, query *Query) (<-chan *EvidenceRecord, <-chan error, error)

	// Count returns the number of evidence records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes matching records and returns how many were deleted.
	// Limit, Offset and sorting are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes evidence records in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*EvidenceRecord, w io.Writer) error
}

// Matches reports whether r satisfies the filters of q. Backends without a
// query language use it directly.
func (q *Query) Matches(r *EvidenceRecord) bool {
	if q.StartTime != nil && r.EvaluatedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.EvaluatedAt.After(*q.EndTime) {
		return false
	}
	if len(q.IDs) > 0 && !contains(q.IDs, r.ID) {
		return false
	}
	if q.ScenarioID != "" && r.ScenarioID != q.ScenarioID {
		return false
	}
	if q.Hash != "" && r.Hash != q.Hash {
		return false
	}
	if q.ETRBand != "" && r.ETRBand != q.ETRBand {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Flag != "" && !contains(r.EscalationFlags, q.Flag) {
		return false
	}
	if q.BlockedAction != "" && !contains(r.BlockedActions, q.BlockedAction) {
		return false
	}
	if q.CacheHit != nil && r.CacheHit != *q.CacheHit {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
