package engine

import (
	"slices"

	"mercator-hq/stormwatch/pkg/policy/rules"
)

// mergeFlags returns the union of all flags, sorted.
func mergeFlags(findings []rules.Finding) []string {
	flags := []string{}
	for _, f := range findings {
		flags = append(flags, f.Flags...)
	}
	slices.Sort(flags)
	return slices.Compact(flags)
}

// mergeAssumptions returns the assumptions deduplicated in first-seen order.
func mergeAssumptions(findings []rules.Finding) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, f := range findings {
		for _, a := range f.Assumptions {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

func collectDrivers(findings []rules.Finding) []rules.Driver {
	out := []rules.Driver{}
	for _, f := range findings {
		out = append(out, f.Drivers...)
	}
	return out
}

func collectConstraints(findings []rules.Finding) []rules.SafetyConstraint {
	out := []rules.SafetyConstraint{}
	for _, f := range findings {
		for _, c := range f.Constraints {
			c.Evidence = copyStrings(c.Evidence)
			out = append(out, c)
		}
	}
	return out
}

func buildTrace(findings []rules.Finding) *EvaluationTrace {
	trace := &EvaluationTrace{}
	for _, f := range findings {
		step := &TraceStep{Source: f.Source, Flags: copyStrings(f.Flags), Assumptions: len(f.Assumptions)}
		for _, a := range f.Allowed {
			step.Allowed = append(step.Allowed, a.ActionType)
		}
		for _, b := range f.Blocked {
			step.Blocked = append(step.Blocked, b.ActionType)
		}
		for _, c := range f.Constraints {
			if c.Triggered {
				step.Triggered = append(step.Triggered, c.ID)
			}
		}
		trace.Steps = append(trace.Steps, step)
	}
	return trace
}
