package rules

import (
	"fmt"
	"strings"

	"mercator-hq/stormwatch/pkg/scenario"
)

const (
	// CriticalityAtRiskThreshold is the average load criticality at which
	// critical service is considered at risk even without a critical-class load.
	CriticalityAtRiskThreshold = 0.70

	// ShortRunwayHours is the backup runway below which a load is short.
	ShortRunwayHours = 4.0
)

// Safety constraint IDs raised by EvaluateCriticalLoads.
const (
	ConstraintCriticalContinuity = "SC-CRIT-001"
	ConstraintBackupDepletion    = "SC-CRIT-002"
)

// CriticalLoadAssessment is the result of EvaluateCriticalLoads.
type CriticalLoadAssessment struct {
	Finding

	// AtRisk reports whether critical service is at risk.
	AtRisk bool

	// CriticalClass lists the IDs of hospital, water and telecom loads.
	CriticalClass []string

	// ShortRunway lists the IDs of loads with less than ShortRunwayHours of
	// backup power.
	ShortRunway []string
}

// EvaluateCriticalLoads decides whether critical service is at risk. When it
// is, de-energizing is blocked unconditionally and prioritizing the critical
// load is allowed.
func EvaluateCriticalLoads(s scenario.Scenario) CriticalLoadAssessment {
	out := CriticalLoadAssessment{CriticalClass: []string{}, ShortRunway: []string{}}
	out.Source = SourceCriticalLoads

	var shortEvidence []string
	for _, load := range s.CriticalLoads {
		if load.Type.IsCriticalClass() {
			out.CriticalClass = append(out.CriticalClass, load.ID)
		}
		if load.BackupHoursRemaining != nil && *load.BackupHoursRemaining < ShortRunwayHours {
			out.ShortRunway = append(out.ShortRunway, load.ID)
			shortEvidence = append(shortEvidence, fmt.Sprintf(
				"%s (%s) has %s hours of backup power remaining",
				load.ID, load.Type, trimFloat(*load.BackupHoursRemaining)))
		}
	}

	avgCriticality := Averages(s).LoadCriticality
	highCriticality := avgCriticality >= CriticalityAtRiskThreshold
	out.AtRisk = len(out.CriticalClass) > 0 || highCriticality

	var continuity []string
	if len(out.CriticalClass) > 0 {
		continuity = append(continuity, fmt.Sprintf(
			"critical-class loads present: %s", strings.Join(out.CriticalClass, ", ")))
	}
	if highCriticality {
		continuity = append(continuity, fmt.Sprintf(
			"average load criticality %.2f is at or above %.2f", avgCriticality, CriticalityAtRiskThreshold))
	}

	out.constraint(SafetyConstraint{
		ID:        ConstraintCriticalContinuity,
		Title:     "Critical-service continuity",
		Severity:  SeverityCritical,
		Triggered: out.AtRisk,
		Evidence:  continuity,
	})
	out.constraint(SafetyConstraint{
		ID:        ConstraintBackupDepletion,
		Title:     "Backup power depletion risk",
		Severity:  SeverityHigh,
		Triggered: len(out.ShortRunway) > 0,
		Evidence:  shortEvidence,
	})

	out.driver("critical_loads", len(s.CriticalLoads), 0.5)
	out.driver("critical_class_loads", len(out.CriticalClass), 0.8)
	out.driver("short_runway_loads", len(out.ShortRunway), 0.7)

	if out.AtRisk {
		out.flag(FlagCriticalLoadAtRisk)
		out.block(ActionDeenergizeSection,
			"Critical loads are at risk; proactive de-energization could cut life-safety service",
			"Confirm critical loads are on verified backup or alternate feed",
			"Obtain incident commander sign-off for any planned isolation")
		out.allow(ActionPrioritizeCriticalLoad,
			"Critical service is at risk and must be restored or protected first",
			"Coordinate with facility operators before switching",
			"Track backup fuel and battery runway for each critical load")
	}
	if len(out.ShortRunway) > 0 {
		out.flag(FlagBackupPowerShort)
	}
	return out
}

func trimFloat(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}
