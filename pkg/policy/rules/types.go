package rules

// ActionType is an operator action the engine classifies as allowed or blocked.
type ActionType string

const (
	ActionDispatchCrews           ActionType = "dispatch_crews"
	ActionRerouteLoad             ActionType = "reroute_load"
	ActionDeenergizeSection       ActionType = "deenergize_section"
	ActionIssuePublicAdvisory     ActionType = "issue_public_advisory"
	ActionRequestMutualAid        ActionType = "request_mutual_aid"
	ActionPrioritizeCriticalLoad  ActionType = "prioritize_critical_load"
	ActionGenerateRestorationPlan ActionType = "generate_restoration_plan"
)

// AllActions lists every action type in response order.
var AllActions = []ActionType{
	ActionDispatchCrews,
	ActionRerouteLoad,
	ActionDeenergizeSection,
	ActionIssuePublicAdvisory,
	ActionRequestMutualAid,
	ActionPrioritizeCriticalLoad,
	ActionGenerateRestorationPlan,
}

// Valid reports whether a is a member of AllActions.
func (a ActionType) Valid() bool {
	for _, known := range AllActions {
		if a == known {
			return true
		}
	}
	return false
}

// Severity is the tier of a safety constraint.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Driver is one scored input that explains a decision.
type Driver struct {
	// Key names the driver, e.g. "asset_risk_score".
	Key string `json:"key"`

	// Value is the observed value. It is a number, string or bool.
	Value any `json:"value"`

	// Weight is the relative contribution of the driver in [0, 1].
	Weight float64 `json:"weight"`
}

// AllowedAction is an action an evaluator considers safe, together with the
// constraints that must keep holding while it is carried out.
type AllowedAction struct {
	ActionType  ActionType `json:"actionType"`
	Reason      string     `json:"reason"`
	Constraints []string   `json:"constraints"`
}

// BlockedAction is an action an evaluator forbids, with the steps that would
// lift the block.
type BlockedAction struct {
	ActionType  ActionType `json:"actionType"`
	Reason      string     `json:"reason"`
	Remediation []string   `json:"remediation"`
}

// SafetyConstraint is a named, independently evaluated condition. Constraints
// are reported whether or not they triggered.
type SafetyConstraint struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Severity  Severity `json:"severity"`
	Triggered bool     `json:"triggered"`
	Evidence  []string `json:"evidence"`
}

// Finding is the output of one evaluator. It is built once by the evaluator
// and not modified afterwards.
type Finding struct {
	// Source names the evaluator that produced the finding.
	Source string

	Drivers     []Driver
	Allowed     []AllowedAction
	Blocked     []BlockedAction
	Flags       []string
	Constraints []SafetyConstraint
	Assumptions []string
}

// Evaluator sources, in resolver precedence order.
const (
	SourceCriticalLoads   = "critical_loads"
	SourceHazardOverrides = "hazard_overrides"
	SourceAssetRisk       = "asset_risk"
	SourceCrews           = "crews"
	SourceETR             = "etr"
)

func (f *Finding) allow(action ActionType, reason string, constraints ...string) {
	if constraints == nil {
		constraints = []string{}
	}
	f.Allowed = append(f.Allowed, AllowedAction{ActionType: action, Reason: reason, Constraints: constraints})
}

func (f *Finding) block(action ActionType, reason string, remediation ...string) {
	if remediation == nil {
		remediation = []string{}
	}
	f.Blocked = append(f.Blocked, BlockedAction{ActionType: action, Reason: reason, Remediation: remediation})
}

func (f *Finding) flag(flag string) {
	f.Flags = append(f.Flags, flag)
}

func (f *Finding) driver(key string, value any, weight float64) {
	f.Drivers = append(f.Drivers, Driver{Key: key, Value: value, Weight: weight})
}

func (f *Finding) constraint(c SafetyConstraint) {
	if c.Evidence == nil {
		c.Evidence = []string{}
	}
	f.Constraints = append(f.Constraints, c)
}
