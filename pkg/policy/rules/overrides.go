package rules

import (
	"fmt"

	"mercator-hq/stormwatch/pkg/scenario"
)

// Hazard override safety constraint IDs.
const (
	ConstraintAerialClearance  = "SC-HAZ-001"
	ConstraintIceLoading       = "SC-HAZ-002"
	ConstraintStormWind        = "SC-HAZ-003"
	ConstraintThermalRating    = "SC-HAZ-004"
	ConstraintFloodAccess      = "SC-HAZ-005"
	thermalOverloadMinSeverity = 3
)

// override is one hazard-specific rule. Overrides are independent: each is
// tested on its own and every one that fires contributes its blocks.
type override struct {
	id       string
	title    string
	severity Severity
	flag     string
	fires    func(scenario.Scenario, AssetRisk) bool
	evidence func(scenario.Scenario, AssetRisk) string
	blocks   []BlockedAction
}

var overrides = []override{
	{
		id:       ConstraintAerialClearance,
		title:    "Aerial clearance before de-energization in fire conditions",
		severity: SeverityCritical,
		flag:     FlagVegetationFireRisk,
		fires: func(_ scenario.Scenario, a AssetRisk) bool {
			return a.VegetationFireRisk
		},
		evidence: func(_ scenario.Scenario, a AssetRisk) string {
			return fmt.Sprintf("WILDFIRE with average vegetation exposure %.2f", a.Averages.VegetationExposure)
		},
		blocks: []BlockedAction{{
			ActionType: ActionDeenergizeSection,
			Reason:     "Vegetation fire risk is active; switching could ignite or mask a fault",
			Remediation: []string{
				"Confirm aerial clearance of the right-of-way",
				"Coordinate with fire agency before switching",
			},
		}},
	},
	{
		id:       ConstraintIceLoading,
		title:    "No remote switching on ice-loaded conductors",
		severity: SeverityHigh,
		flag:     FlagIceLoadingActive,
		fires: func(s scenario.Scenario, _ AssetRisk) bool {
			return s.HazardType == scenario.HazardIce && s.IsActive()
		},
		evidence: func(s scenario.Scenario, _ AssetRisk) string {
			return fmt.Sprintf("ICE hazard in ACTIVE phase at severity %d", s.Severity)
		},
		blocks: []BlockedAction{{
			ActionType: ActionDeenergizeSection,
			Reason:     "Ice loading is active; remote switching on loaded conductors is unsafe",
			Remediation: []string{
				"Have a crew visually confirm line state",
				"Switch locally once conductor loading is assessed",
			},
		}},
	},
	{
		id:       ConstraintStormWind,
		title:    "Crew and switching hold during active storm",
		severity: SeverityCritical,
		flag:     FlagStormActive,
		fires: func(s scenario.Scenario, _ AssetRisk) bool {
			return s.HazardType == scenario.HazardStorm && s.IsActive()
		},
		evidence: func(s scenario.Scenario, _ AssetRisk) string {
			return fmt.Sprintf("STORM hazard in ACTIVE phase at severity %d", s.Severity)
		},
		blocks: []BlockedAction{
			{
				ActionType: ActionDispatchCrews,
				Reason:     "Storm is active; field work is unsafe in current wind conditions",
				Remediation: []string{
					"Defer dispatch until sustained wind drops below the crew safety threshold",
					"Stage crews at a safe location for rapid deployment",
				},
			},
			{
				ActionType: ActionRerouteLoad,
				Reason:     "Storm is active; feeder integrity cannot be confirmed",
				Remediation: []string{
					"Defer rerouting until post-storm feeder integrity is confirmed",
				},
			},
		},
	},
	{
		id:       ConstraintThermalRating,
		title:    "Transformer thermal rating review under heat",
		severity: SeverityHigh,
		flag:     FlagThermalOverloadRisk,
		fires: func(s scenario.Scenario, _ AssetRisk) bool {
			return s.HazardType == scenario.HazardHeat && s.Severity >= thermalOverloadMinSeverity
		},
		evidence: func(s scenario.Scenario, _ AssetRisk) string {
			return fmt.Sprintf("HEAT hazard at severity %d", s.Severity)
		},
		blocks: []BlockedAction{{
			ActionType: ActionRerouteLoad,
			Reason:     "Heat is stressing transformers; added load may exceed thermal ratings",
			Remediation: []string{
				"Review transformer thermal ratings on the receiving feeders",
				"Reroute only onto circuits with confirmed thermal headroom",
			},
		}},
	},
	{
		id:       ConstraintFloodAccess,
		title:    "Site access during flooding",
		severity: SeverityHigh,
		flag:     FlagFloodAccessRisk,
		fires: func(s scenario.Scenario, _ AssetRisk) bool {
			return s.HazardType == scenario.HazardRain && s.IsActive()
		},
		evidence: func(s scenario.Scenario, _ AssetRisk) string {
			return fmt.Sprintf("RAIN hazard in ACTIVE phase at severity %d", s.Severity)
		},
		blocks: []BlockedAction{{
			ActionType: ActionDispatchCrews,
			Reason:     "Active rain; flood levels may make sites unreachable or unsafe",
			Remediation: []string{
				"Wait for flood levels to recede",
				"Obtain site-safety clearance before dispatch",
			},
		}},
	},
}

// EvaluateHazardOverrides applies the hazard-specific overrides. Every
// override reports its safety constraint; those that fire also raise their
// flag and add their blocks.
func EvaluateHazardOverrides(s scenario.Scenario, assets AssetRisk) Finding {
	out := Finding{Source: SourceHazardOverrides}
	fired := 0
	for _, o := range overrides {
		triggered := o.fires(s, assets)
		var evidence []string
		if triggered {
			fired++
			evidence = []string{o.evidence(s, assets)}
			out.flag(o.flag)
			for _, b := range o.blocks {
				out.block(b.ActionType, b.Reason, b.Remediation...)
			}
		}
		out.constraint(SafetyConstraint{
			ID:        o.id,
			Title:     o.title,
			Severity:  o.severity,
			Triggered: triggered,
			Evidence:  evidence,
		})
	}
	out.driver("hazard_overrides_fired", fired, 0.9)
	return out
}
