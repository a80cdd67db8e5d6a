package engine

import (
	"time"

	"mercator-hq/stormwatch/pkg/policy/rules"
)

// Version is the engine version reported in every response. It participates
// in cache keys, so it must change whenever rule semantics change.
const Version = "1.0.0"

// Response is the decision envelope returned for one scenario.
type Response struct {
	// AllowedActions are actions permitted for human execution, in action order.
	AllowedActions []rules.AllowedAction `json:"allowedActions"`

	// BlockedActions are actions that must not be taken, in action order.
	// Together with AllowedActions it covers every action type exactly once.
	BlockedActions []rules.BlockedAction `json:"blockedActions"`

	// EscalationFlags are the merged flags, sorted and deduplicated.
	EscalationFlags []string `json:"escalationFlags"`

	// CriticalLoadAtRisk reports whether critical service is at risk.
	CriticalLoadAtRisk bool `json:"criticalLoadAtRisk"`

	// ETR is the restoration-time confidence band.
	ETR ETR `json:"etr"`

	// SafetyConstraints lists every constraint, triggered or not.
	SafetyConstraints []rules.SafetyConstraint `json:"safetyConstraints"`

	Explainability Explainability `json:"explainability"`
	Timestamps     Timestamps     `json:"timestamps"`
	Meta           Meta           `json:"meta"`

	// Trace is populated when tracing is enabled. It is never serialized.
	Trace *EvaluationTrace `json:"-"`
}

// ETR is the estimated-time-to-restoration confidence band.
type ETR struct {
	Band       rules.Band `json:"band"`
	Confidence float64    `json:"confidence"`
	Rationale  []string   `json:"rationale"`
}

// Explainability carries the justification for a decision.
type Explainability struct {
	Drivers             []rules.Driver `json:"drivers"`
	Assumptions         []string       `json:"assumptions"`
	DataQualityWarnings []string       `json:"dataQualityWarnings"`
}

// Timestamps records when the decision was made and how old the input was.
type Timestamps struct {
	EvaluatedAt time.Time `json:"evaluatedAt"`

	// InputLastUpdated is the scenario's declared last-updated time, when valid.
	InputLastUpdated *time.Time `json:"inputLastUpdated,omitempty"`
}

// Meta identifies the engine and the evaluated input.
type Meta struct {
	EngineVersion     string `json:"engineVersion"`
	DeterministicHash string `json:"deterministicHash"`
	ScenarioID        string `json:"scenarioId"`
}

// ActionTypes returns the action types of the allowed and blocked sets.
func (r *Response) ActionTypes() (allowed, blocked []rules.ActionType) {
	allowed = make([]rules.ActionType, 0, len(r.AllowedActions))
	for _, a := range r.AllowedActions {
		allowed = append(allowed, a.ActionType)
	}
	blocked = make([]rules.ActionType, 0, len(r.BlockedActions))
	for _, b := range r.BlockedActions {
		blocked = append(blocked, b.ActionType)
	}
	return allowed, blocked
}

// HasFlag reports whether flag was raised.
func (r *Response) HasFlag(flag string) bool {
	for _, f := range r.EscalationFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// EvaluationTrace records what each evaluator contributed, for debugging.
type EvaluationTrace struct {
	// Steps has one entry per evaluator, in resolver order.
	Steps []*TraceStep

	// TotalTime is the wall time of the evaluation. It is set by Engine, not
	// by the pure Evaluate function.
	TotalTime time.Duration
}

// TraceStep summarizes one evaluator's finding.
type TraceStep struct {
	// Source is the evaluator name.
	Source string

	Allowed     []rules.ActionType
	Blocked     []rules.ActionType
	Flags       []string
	Triggered   []string
	Assumptions int
}
