package rules

import (
	"fmt"

	"mercator-hq/stormwatch/pkg/scenario"
)

// Band is an estimated-time-to-restoration confidence band.
type Band string

const (
	BandHigh    Band = "HIGH"
	BandMedium  Band = "MEDIUM"
	BandLow     Band = "LOW"
	BandUnknown Band = "UNKNOWN"
)

const (
	goodCompleteness     = 0.75
	goodFreshnessMinutes = 60.0
	escalatingSeverity   = 4

	mediumConfidence = 0.62
)

// ETREstimate is the result of EvaluateETR.
type ETREstimate struct {
	Finding

	Band       Band
	Confidence float64
	Rationale  []string
}

// Escalating reports whether the hazard is an actively escalating storm or
// wildfire.
func Escalating(s scenario.Scenario) bool {
	return s.IsActive() && (s.HazardType == scenario.HazardStorm || s.HazardType == scenario.HazardWildfire)
}

// EvaluateETR places the restoration estimate in a confidence band. Bands are
// tested HIGH, then LOW, then MEDIUM; the first match wins. warnings is the
// number of normalization warnings.
func EvaluateETR(s scenario.Scenario, warnings int, crews CrewAssessment) ETREstimate {
	out := ETREstimate{}
	out.Source = SourceETR

	dq := s.DataQuality
	complete := dq.Completeness >= goodCompleteness
	fresh := dq.FreshnessMinutes <= goodFreshnessMinutes
	clean := warnings == 0
	escalating := Escalating(s)

	out.driver("data_completeness", round2(dq.Completeness), 0.4)
	out.driver("data_freshness_minutes", round2(dq.FreshnessMinutes), 0.3)
	out.driver("data_quality_warnings", warnings, 0.3)

	if complete && fresh && clean && crews.Sufficient && !escalating {
		out.Band = BandHigh
		out.Confidence = round2(clamp(0.75+0.2*dq.Completeness, 0.8, 0.95))
		out.Rationale = []string{
			fmt.Sprintf("Data completeness %.2f meets the %.2f threshold", dq.Completeness, goodCompleteness),
			fmt.Sprintf("Telemetry is %s minutes old, within %.0f minutes", trimFloat(dq.FreshnessMinutes), goodFreshnessMinutes),
			"No data-quality warnings were raised",
			fmt.Sprintf("Crew capacity is sufficient (%d of %d needed)", crews.Total, crews.Needed),
			"Hazard is not actively escalating",
		}
		return out
	}

	var low []string
	if len(s.Assets) == 0 {
		low = append(low, "No asset data supplied")
	}
	if s.CustomersAffected == 0 {
		low = append(low, "Customers affected is unknown or zero")
	}
	if escalating && s.Severity >= escalatingSeverity {
		low = append(low, fmt.Sprintf("%s is actively escalating at severity %d", s.HazardType, s.Severity))
	}
	if !crews.Sufficient {
		low = append(low, fmt.Sprintf("Crew capacity is insufficient (%d of %d needed)", crews.Total, crews.Needed))
	}
	if len(low) > 0 {
		out.Band = BandLow
		out.Confidence = round2(clamp(0.35-0.03*float64(warnings), 0.15, 0.45))
		if warnings > 0 {
			low = append(low, fmt.Sprintf("%d data-quality warnings lower confidence", warnings))
		}
		out.Rationale = low
		return out
	}

	out.Band = BandMedium
	out.Confidence = mediumConfidence
	var medium []string
	if !complete {
		medium = append(medium, fmt.Sprintf("Data completeness %.2f is below the %.2f threshold", dq.Completeness, goodCompleteness))
	}
	if !fresh {
		medium = append(medium, fmt.Sprintf("Telemetry is %s minutes old, beyond %.0f minutes", trimFloat(dq.FreshnessMinutes), goodFreshnessMinutes))
	}
	if !clean {
		medium = append(medium, fmt.Sprintf("%d data-quality warnings were raised", warnings))
	}
	if escalating {
		medium = append(medium, fmt.Sprintf("%s is actively escalating", s.HazardType))
	}
	out.Rationale = medium
	return out
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
