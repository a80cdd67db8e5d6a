package rules

import (
	"fmt"
	"math"

	"mercator-hq/stormwatch/pkg/scenario"
)

const (
	customersPerCrew     = 1500.0
	crewsPerSeverityStep = 1.2

	// ConstraintCrewStaffing is the crew sufficiency safety constraint.
	ConstraintCrewStaffing = "SC-CREW-001"
)

// CrewAssessment is the result of EvaluateCrews.
type CrewAssessment struct {
	Finding

	Total      int
	Needed     int
	Sufficient bool
}

// CrewsNeeded estimates the crews required for s.
func CrewsNeeded(s scenario.Scenario) int {
	needed := int(math.Ceil(float64(s.CustomersAffected)/customersPerCrew)) +
		int(math.Ceil(float64(s.Severity)*crewsPerSeverityStep))
	if needed < 1 {
		return 1
	}
	return needed
}

// EvaluateCrews compares available crews with the estimated need. Dispatch,
// mutual aid and restoration planning are always allowed; a shortage blocks
// load rerouting.
func EvaluateCrews(s scenario.Scenario) CrewAssessment {
	out := CrewAssessment{
		Total:  s.Crews.Total(),
		Needed: CrewsNeeded(s),
	}
	out.Source = SourceCrews
	out.Sufficient = out.Total >= out.Needed

	out.driver("crews_available_total", out.Total, 0.6)
	out.driver("crews_needed_estimate", out.Needed, 0.6)

	capacity := fmt.Sprintf("%d crews available or en route against %d estimated needed", out.Total, out.Needed)

	if out.Sufficient {
		out.allow(ActionDispatchCrews, "Crew capacity covers the estimated need",
			"Complete a site safety briefing before work begins")
		out.allow(ActionRequestMutualAid, "Mutual aid can be staged as a contingency",
			"Confirm mutual aid agreements before committing resources")
		out.allow(ActionGenerateRestorationPlan, "Crew capacity supports a restoration plan")
	} else {
		out.allow(ActionDispatchCrews, "Dispatch available crews to the highest-priority work",
			"Complete a site safety briefing before work begins",
			"Do not split crews below minimum team size")
		out.allow(ActionRequestMutualAid, "Crew capacity is below the estimated need; request mutual aid",
			"Confirm mutual aid agreements before committing resources")
		out.allow(ActionGenerateRestorationPlan, "Plan restoration around the crew shortfall",
			"Sequence work by critical load priority")
		out.flag(FlagInsufficientCrews)
		out.block(ActionRerouteLoad, "Switching verification cannot be staffed safely with current crews",
			fmt.Sprintf("Secure at least %d additional crews", out.Needed-out.Total),
			"Re-evaluate once mutual aid crews arrive")
	}

	var evidence []string
	if !out.Sufficient {
		evidence = []string{capacity}
	}
	out.constraint(SafetyConstraint{
		ID:        ConstraintCrewStaffing,
		Title:     "Crew staffing adequacy",
		Severity:  SeverityHigh,
		Triggered: !out.Sufficient,
		Evidence:  evidence,
	})
	return out
}
