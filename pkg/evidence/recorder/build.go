package recorder

import (
	"time"

	"github.com/google/uuid"

	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/policy/engine"
)

// Meta describes the request that produced an evaluation.
type Meta struct {
	RequestID string
	Source    evidence.Source
	CacheHit  bool
	Duration  time.Duration
}

// Build creates an evidence record from an evaluation response.
func Build(resp *engine.Response, meta Meta) *evidence.EvidenceRecord {
	allowed, blocked := resp.ActionTypes()

	return &evidence.EvidenceRecord{
		ID:        uuid.NewString(),
		RequestID: meta.RequestID,

		ScenarioID:    resp.Meta.ScenarioID,
		Hash:          resp.Meta.DeterministicHash,
		EngineVersion: resp.Meta.EngineVersion,

		AllowedActions:     actionStrings(allowed),
		BlockedActions:     actionStrings(blocked),
		EscalationFlags:    append([]string{}, resp.EscalationFlags...),
		CriticalLoadAtRisk: resp.CriticalLoadAtRisk,

		ETRBand:       string(resp.ETR.Band),
		ETRConfidence: resp.ETR.Confidence,
		WarningCount:  len(resp.Explainability.DataQualityWarnings),

		CacheHit: meta.CacheHit,
		Source:   meta.Source,
		Duration: meta.Duration,

		EvaluatedAt: resp.Timestamps.EvaluatedAt,
	}
}

func actionStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
