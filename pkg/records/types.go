package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ScenarioRecord is a stored scenario. Payload holds the scenario JSON
// object exactly as submitted.
type ScenarioRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AssetRecord is an asset attached to a stored scenario. Payload holds one
// asset JSON object.
type AssetRecord struct {
	ID         string          `json:"id"`
	ScenarioID string          `json:"scenarioId"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ListOptions paginates list operations. A zero Limit uses DefaultListLimit.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListLimit and MaxListLimit bound ListScenarios.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Store persists scenario and asset records.
type Store interface {
	CreateScenario(ctx context.Context, rec *ScenarioRecord) error
	GetScenario(ctx context.Context, id string) (*ScenarioRecord, error)
	UpdateScenario(ctx context.Context, rec *ScenarioRecord) error
	// DeleteScenario removes the scenario and its assets.
	DeleteScenario(ctx context.Context, id string) error
	// ListScenarios returns scenarios ordered by creation time, then id.
	ListScenarios(ctx context.Context, opts ListOptions) ([]*ScenarioRecord, error)

	CreateAsset(ctx context.Context, rec *AssetRecord) error
	GetAsset(ctx context.Context, scenarioID, id string) (*AssetRecord, error)
	UpdateAsset(ctx context.Context, rec *AssetRecord) error
	DeleteAsset(ctx context.Context, scenarioID, id string) error
	// ListAssets returns a scenario's assets ordered by creation time, then id.
	ListAssets(ctx context.Context, scenarioID string) ([]*AssetRecord, error)

	Close() error
}

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("record not found")

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "scenario" or "asset"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ErrConflict is returned when creating a record whose id already exists.
var ErrConflict = errors.New("record already exists")

// InvalidRecordError reports a record rejected before storage.
type InvalidRecordError struct {
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func normalizeList(opts ListOptions) ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}
