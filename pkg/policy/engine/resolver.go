package engine

import (
	"mercator-hq/stormwatch/pkg/policy/rules"
	"mercator-hq/stormwatch/pkg/scenario"
)

// Default-policy reasons for actions no evaluator addressed.
const (
	reasonAdvisoryDefault    = "Public advisories are permitted unless a rule blocks them"
	reasonPrioritizeDefault  = "Critical service is at risk; protect critical loads first"
	reasonDeenergizeDefault  = "ACTIVE phase at severity 4 or higher supports controlled de-energization"
	reasonRerouteDefault     = "No rule blocks load transfer"
	reasonNotRecommended     = "Not recommended under current rule state"
	deenergizeDefaultMinimum = 4
)

// verdict accumulates every signal for one action.
type verdict struct {
	allowed     *rules.AllowedAction
	constraints []string
	seen        map[string]bool
	blocked     *rules.BlockedAction
}

func (v *verdict) addAllow(a rules.AllowedAction) {
	if v.allowed == nil {
		first := a
		v.allowed = &first
		v.seen = make(map[string]bool)
	}
	for _, c := range a.Constraints {
		if !v.seen[c] {
			v.seen[c] = true
			v.constraints = append(v.constraints, c)
		}
	}
}

func (v *verdict) addBlock(b rules.BlockedAction) {
	if v.blocked == nil {
		first := b
		v.blocked = &first
	}
}

// Resolve folds the findings into exactly one verdict per action type.
//
// Findings are consulted in the order given. A block from any finding wins
// over every allow, and the first block supplies the reason and
// remediation. The first allow supplies the reason; constraints from all
// allows are merged in first-seen order. Actions that no finding addressed
// receive the default policy, and anything still unaddressed is blocked as
// not recommended.
func Resolve(findings []rules.Finding, criticalLoadAtRisk bool, s scenario.Scenario) ([]rules.AllowedAction, []rules.BlockedAction) {
	verdicts := make(map[rules.ActionType]*verdict, len(rules.AllActions))
	for _, a := range rules.AllActions {
		verdicts[a] = &verdict{}
	}

	for _, f := range findings {
		for _, b := range f.Blocked {
			if v, ok := verdicts[b.ActionType]; ok {
				v.addBlock(b)
			}
		}
		for _, a := range f.Allowed {
			if v, ok := verdicts[a.ActionType]; ok {
				v.addAllow(a)
			}
		}
	}

	allowed := make([]rules.AllowedAction, 0, len(rules.AllActions))
	blocked := make([]rules.BlockedAction, 0, len(rules.AllActions))

	for _, action := range rules.AllActions {
		v := verdicts[action]
		switch {
		case v.blocked != nil:
			b := *v.blocked
			b.Remediation = copyStrings(b.Remediation)
			blocked = append(blocked, b)

		case v.allowed != nil:
			a := *v.allowed
			a.Constraints = copyStrings(v.constraints)
			allowed = append(allowed, a)

		default:
			if a, ok := defaultAllow(action, criticalLoadAtRisk, s); ok {
				allowed = append(allowed, a)
				continue
			}
			blocked = append(blocked, rules.BlockedAction{
				ActionType:  action,
				Reason:      reasonNotRecommended,
				Remediation: []string{},
			})
		}
	}
	return allowed, blocked
}

// defaultAllow applies the default policy to an action no finding addressed.
func defaultAllow(action rules.ActionType, criticalLoadAtRisk bool, s scenario.Scenario) (rules.AllowedAction, bool) {
	switch action {
	case rules.ActionIssuePublicAdvisory:
		return rules.AllowedAction{
			ActionType:  action,
			Reason:      reasonAdvisoryDefault,
			Constraints: []string{"Advisory content must be approved by communications lead"},
		}, true

	case rules.ActionPrioritizeCriticalLoad:
		if criticalLoadAtRisk {
			return rules.AllowedAction{ActionType: action, Reason: reasonPrioritizeDefault, Constraints: []string{}}, true
		}

	case rules.ActionDeenergizeSection:
		if s.IsActive() && s.Severity >= deenergizeDefaultMinimum {
			return rules.AllowedAction{
				ActionType: action,
				Reason:     reasonDeenergizeDefault,
				Constraints: []string{
					"Confirm isolation points before switching",
					"Notify affected critical customers before de-energizing",
				},
			}, true
		}

	case rules.ActionRerouteLoad:
		return rules.AllowedAction{
			ActionType:  action,
			Reason:      reasonRerouteDefault,
			Constraints: []string{"Verify receiving feeder capacity before transfer"},
		}, true
	}
	return rules.AllowedAction{}, false
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
