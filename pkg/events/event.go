package events

import (
	"time"

	"github.com/google/uuid"

	"mercator-hq/stormwatch/pkg/policy/engine"
)

// TypeEvaluationCompleted is emitted after an evaluation that raised at
// least one escalation flag.
const TypeEvaluationCompleted = "evaluation.completed"

// Event is the message published for a completed evaluation. It carries a
// summary of the decision, not the full response.
type Event struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	RequestID          string    `json:"requestId,omitempty"`
	ScenarioID         string    `json:"scenarioId"`
	Hash               string    `json:"deterministicHash"`
	EngineVersion      string    `json:"engineVersion"`
	ETRBand            string    `json:"etrBand"`
	EscalationFlags    []string  `json:"escalationFlags"`
	BlockedActions     []string  `json:"blockedActions"`
	CriticalLoadAtRisk bool      `json:"criticalLoadAtRisk"`
	EvaluatedAt        time.Time `json:"evaluatedAt"`
}

// NewEvaluationEvent summarizes resp.
func NewEvaluationEvent(resp *engine.Response, requestID string) Event {
	_, blocked := resp.ActionTypes()
	blockedNames := make([]string, len(blocked))
	for i, a := range blocked {
		blockedNames[i] = string(a)
	}

	return Event{
		ID:                 uuid.NewString(),
		Type:               TypeEvaluationCompleted,
		RequestID:          requestID,
		ScenarioID:         resp.Meta.ScenarioID,
		Hash:               resp.Meta.DeterministicHash,
		EngineVersion:      resp.Meta.EngineVersion,
		ETRBand:            string(resp.ETR.Band),
		EscalationFlags:    append([]string(nil), resp.EscalationFlags...),
		BlockedActions:     blockedNames,
		CriticalLoadAtRisk: resp.CriticalLoadAtRisk,
		EvaluatedAt:        resp.Timestamps.EvaluatedAt,
	}
}
