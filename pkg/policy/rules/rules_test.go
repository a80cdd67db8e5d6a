package rules

import (
	"slices"
	"testing"

	"mercator-hq/stormwatch/pkg/scenario"
)

func ptr(f float64) *float64 { return &f }

func baseScenario() scenario.Scenario {
	return scenario.Scenario{
		ScenarioID:        "test",
		HazardType:        scenario.HazardUnknown,
		Phase:             scenario.PhaseUnknown,
		Severity:          3,
		CustomersAffected: 1000,
		Assets:            []scenario.Asset{{ID: "a1", Type: "pole"}},
		CriticalLoads:     []scenario.CriticalLoad{},
		Crews:             scenario.Crews{Available: 10},
		DataQuality:       scenario.DataQuality{Completeness: 0.9, FreshnessMinutes: 30},
	}
}

func findBlock(f Finding, a ActionType) (BlockedAction, bool) {
	for _, b := range f.Blocked {
		if b.ActionType == a {
			return b, true
		}
	}
	return BlockedAction{}, false
}

func findAllow(f Finding, a ActionType) (AllowedAction, bool) {
	for _, al := range f.Allowed {
		if al.ActionType == a {
			return al, true
		}
	}
	return AllowedAction{}, false
}

func findConstraint(f Finding, id string) (SafetyConstraint, bool) {
	for _, c := range f.Constraints {
		if c.ID == id {
			return c, true
		}
	}
	return SafetyConstraint{}, false
}

func TestActionTypeValid(t *testing.T) {
	if len(AllActions) != 7 {
		t.Fatalf("expected 7 action types, got %d", len(AllActions))
	}
	for _, a := range AllActions {
		if !a.Valid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if ActionType("launch_drones").Valid() {
		t.Error("unknown action should be invalid")
	}
}

func TestKnownFlagsSorted(t *testing.T) {
	if !slices.IsSorted(KnownFlags) {
		t.Errorf("KnownFlags not sorted: %v", KnownFlags)
	}
}

func TestEvaluateAssetRisk_Score(t *testing.T) {
	tests := []struct {
		name      string
		hazard    scenario.HazardType
		severity  int
		assets    []scenario.Asset
		wantScore int
	}{
		{
			// age 15/60*35 = 8.75, veg 0.4*25 = 10, crit 0.5*30 = 15, sev 3/5*10 = 6
			name:      "defaults unknown hazard",
			hazard:    scenario.HazardUnknown,
			severity:  3,
			wantScore: 40,
		},
		{
			name:      "storm multiplier",
			hazard:    scenario.HazardStorm,
			severity:  3,
			wantScore: 50, // 39.75 * 1.25 = 49.6875
		},
		{
			name:     "old exposed critical assets clamp to 100",
			hazard:   scenario.HazardWildfire,
			severity: 5,
			assets: []scenario.Asset{
				{ID: "a", Type: "pole", AgeYears: ptr(90), VegetationExposure: ptr(1), LoadCriticality: ptr(1)},
			},
			wantScore: 100,
		},
		{
			name:     "new clean assets",
			hazard:   scenario.HazardHeat,
			severity: 1,
			assets: []scenario.Asset{
				{ID: "a", Type: "pole", AgeYears: ptr(0), VegetationExposure: ptr(0), LoadCriticality: ptr(0)},
			},
			wantScore: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			s.HazardType = tt.hazard
			s.Severity = tt.severity
			s.Assets = tt.assets
			got := EvaluateAssetRisk(s)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Source != SourceAssetRisk {
				t.Errorf("Source = %q", got.Source)
			}
		})
	}
}

func TestEvaluateAssetRisk_NoAssetsAssumption(t *testing.T) {
	s := baseScenario()
	s.Assets = []scenario.Asset{}
	got := EvaluateAssetRisk(s)
	if !got.Averages.Defaulted {
		t.Error("expected defaulted averages")
	}
	if !slices.Contains(got.Assumptions, assumptionNoAssets) {
		t.Errorf("missing no-assets assumption: %v", got.Assumptions)
	}

	s.Assets = []scenario.Asset{{ID: "a", Type: "pole"}}
	if got := EvaluateAssetRisk(s); len(got.Assumptions) != 0 {
		t.Errorf("unexpected assumptions: %v", got.Assumptions)
	}
}

func TestEvaluateAssetRisk_Flags(t *testing.T) {
	tests := []struct {
		name       string
		hazard     scenario.HazardType
		severity   int
		vegetation float64
		want       []string
		notWant    []string
	}{
		{name: "heat severe", hazard: scenario.HazardHeat, severity: 4, vegetation: 0.1, want: []string{FlagThermalStress}},
		{name: "heat moderate", hazard: scenario.HazardHeat, severity: 3, vegetation: 0.1, notWant: []string{FlagThermalStress}},
		{name: "wildfire exposed", hazard: scenario.HazardWildfire, severity: 2, vegetation: 0.7, want: []string{FlagVegetationFireRisk}},
		{name: "wildfire clear", hazard: scenario.HazardWildfire, severity: 2, vegetation: 0.69, notWant: []string{FlagVegetationFireRisk}},
		{name: "rain exposed", hazard: scenario.HazardRain, severity: 2, vegetation: 0.95, notWant: []string{FlagVegetationFireRisk, FlagHighWindConductorRisk}},
		{name: "storm exposed", hazard: scenario.HazardStorm, severity: 2, vegetation: 0.6, want: []string{FlagHighWindConductorRisk}},
		{name: "storm clear", hazard: scenario.HazardStorm, severity: 2, vegetation: 0.5, notWant: []string{FlagHighWindConductorRisk}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			s.HazardType = tt.hazard
			s.Severity = tt.severity
			s.Assets = []scenario.Asset{{ID: "a", Type: "span", VegetationExposure: ptr(tt.vegetation)}}
			got := EvaluateAssetRisk(s)
			for _, f := range tt.want {
				if !slices.Contains(got.Flags, f) {
					t.Errorf("expected flag %q in %v", f, got.Flags)
				}
			}
			for _, f := range tt.notWant {
				if slices.Contains(got.Flags, f) {
					t.Errorf("unexpected flag %q in %v", f, got.Flags)
				}
			}
			if got.VegetationFireRisk != slices.Contains(got.Flags, FlagVegetationFireRisk) {
				t.Error("VegetationFireRisk disagrees with flags")
			}
		})
	}
}

func TestEvaluateAssetRisk_ElevatedFlag(t *testing.T) {
	s := baseScenario()
	s.HazardType = scenario.HazardWildfire
	s.Severity = 5
	s.Assets = []scenario.Asset{{ID: "a", Type: "pole", AgeYears: ptr(60), VegetationExposure: ptr(0.5), LoadCriticality: ptr(0.5)}}
	got := EvaluateAssetRisk(s)
	if got.Score < ElevatedAssetRiskScore {
		t.Fatalf("Score = %d, expected elevated", got.Score)
	}
	if !slices.Contains(got.Flags, FlagElevatedAssetRisk) {
		t.Errorf("expected %s in %v", FlagElevatedAssetRisk, got.Flags)
	}
}

func TestEvaluateCriticalLoads(t *testing.T) {
	tests := []struct {
		name          string
		loads         []scenario.CriticalLoad
		criticality   *float64
		wantAtRisk    bool
		wantShort     bool
		wantEvidences int
	}{
		{name: "no loads", wantAtRisk: false},
		{
			name:          "hospital",
			loads:         []scenario.CriticalLoad{{ID: "h1", Type: scenario.LoadHospital}},
			wantAtRisk:    true,
			wantEvidences: 1,
		},
		{
			name:       "shelter is not critical class",
			loads:      []scenario.CriticalLoad{{ID: "s1", Type: scenario.LoadShelter, BackupHoursRemaining: ptr(12)}},
			wantAtRisk: false,
		},
		{
			name:          "high criticality alone",
			criticality:   ptr(0.7),
			wantAtRisk:    true,
			wantEvidences: 1,
		},
		{
			name:          "both triggers",
			loads:         []scenario.CriticalLoad{{ID: "w1", Type: scenario.LoadWater}},
			criticality:   ptr(0.9),
			wantAtRisk:    true,
			wantEvidences: 2,
		},
		{
			name:      "short runway on non-critical load",
			loads:     []scenario.CriticalLoad{{ID: "e1", Type: scenario.LoadEmergencyServices, BackupHoursRemaining: ptr(3.5)}},
			wantShort: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			s.CriticalLoads = tt.loads
			s.Assets = []scenario.Asset{{ID: "a", Type: "pole", LoadCriticality: tt.criticality}}
			got := EvaluateCriticalLoads(s)

			if got.AtRisk != tt.wantAtRisk {
				t.Errorf("AtRisk = %v, want %v", got.AtRisk, tt.wantAtRisk)
			}
			continuity, ok := findConstraint(got.Finding, ConstraintCriticalContinuity)
			if !ok {
				t.Fatal("missing continuity constraint")
			}
			if continuity.Triggered != tt.wantAtRisk || len(continuity.Evidence) != tt.wantEvidences {
				t.Errorf("continuity = %+v", continuity)
			}
			backup, ok := findConstraint(got.Finding, ConstraintBackupDepletion)
			if !ok || backup.Triggered != tt.wantShort {
				t.Errorf("backup constraint = %+v, want triggered %v", backup, tt.wantShort)
			}
			if backup.Evidence == nil || continuity.Evidence == nil {
				t.Error("evidence must be non-nil")
			}

			_, blocked := findBlock(got.Finding, ActionDeenergizeSection)
			_, allowed := findAllow(got.Finding, ActionPrioritizeCriticalLoad)
			if blocked != tt.wantAtRisk || allowed != tt.wantAtRisk {
				t.Errorf("deenergize blocked = %v, prioritize allowed = %v, want %v", blocked, allowed, tt.wantAtRisk)
			}
			if slices.Contains(got.Flags, FlagBackupPowerShort) != tt.wantShort {
				t.Errorf("backup flag mismatch: %v", got.Flags)
			}
		})
	}
}

func TestCrewsNeeded(t *testing.T) {
	tests := []struct {
		customers int
		severity  int
		want      int
	}{
		{customers: 0, severity: 1, want: 2},
		{customers: 0, severity: 3, want: 4},
		{customers: 1500, severity: 3, want: 5},
		{customers: 1501, severity: 3, want: 6},
		{customers: 20000, severity: 5, want: 20},
	}
	for _, tt := range tests {
		s := baseScenario()
		s.CustomersAffected = tt.customers
		s.Severity = tt.severity
		if got := CrewsNeeded(s); got != tt.want {
			t.Errorf("CrewsNeeded(%d, %d) = %d, want %d", tt.customers, tt.severity, got, tt.want)
		}
	}
}

func TestEvaluateCrews(t *testing.T) {
	always := []ActionType{ActionDispatchCrews, ActionRequestMutualAid, ActionGenerateRestorationPlan}

	for _, available := range []int{0, 100} {
		s := baseScenario()
		s.Crews = scenario.Crews{Available: available}
		got := EvaluateCrews(s)

		for _, a := range always {
			if _, ok := findAllow(got.Finding, a); !ok {
				t.Errorf("available=%d: %s should always be allowed", available, a)
			}
		}
		sufficient := available == 100
		if got.Sufficient != sufficient {
			t.Errorf("available=%d: Sufficient = %v", available, got.Sufficient)
		}
		_, blocked := findBlock(got.Finding, ActionRerouteLoad)
		if blocked == sufficient {
			t.Errorf("available=%d: reroute blocked = %v", available, blocked)
		}
		if slices.Contains(got.Flags, FlagInsufficientCrews) == sufficient {
			t.Errorf("available=%d: flags = %v", available, got.Flags)
		}
		c, ok := findConstraint(got.Finding, ConstraintCrewStaffing)
		if !ok || c.Triggered == sufficient {
			t.Errorf("available=%d: constraint = %+v", available, c)
		}
	}
}

func TestEvaluateETR(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*scenario.Scenario)
		warnings int
		wantBand Band
		wantConf float64
	}{
		{
			name:     "high",
			mutate:   func(s *scenario.Scenario) {},
			wantBand: BandHigh,
			wantConf: 0.93, // 0.75 + 0.2*0.9
		},
		{
			name: "high at completeness threshold",
			mutate: func(s *scenario.Scenario) {
				s.DataQuality.Completeness = 0.75
			},
			wantBand: BandHigh,
			wantConf: 0.9,
		},
		{
			name:     "warning drops high to medium",
			mutate:   func(s *scenario.Scenario) {},
			warnings: 1,
			wantBand: BandMedium,
			wantConf: 0.62,
		},
		{
			name: "stale data is medium",
			mutate: func(s *scenario.Scenario) {
				s.DataQuality.FreshnessMinutes = 61
			},
			wantBand: BandMedium,
			wantConf: 0.62,
		},
		{
			name: "no assets is low",
			mutate: func(s *scenario.Scenario) {
				s.Assets = []scenario.Asset{}
			},
			warnings: 1,
			wantBand: BandLow,
			wantConf: 0.32,
		},
		{
			name: "zero customers is low",
			mutate: func(s *scenario.Scenario) {
				s.CustomersAffected = 0
			},
			wantBand: BandLow,
			wantConf: 0.35,
		},
		{
			name: "escalating severe storm is low",
			mutate: func(s *scenario.Scenario) {
				s.HazardType = scenario.HazardStorm
				s.Phase = scenario.PhaseActive
				s.Severity = 4
			},
			wantBand: BandLow,
			wantConf: 0.35,
		},
		{
			name: "escalating mild wildfire is medium",
			mutate: func(s *scenario.Scenario) {
				s.HazardType = scenario.HazardWildfire
				s.Phase = scenario.PhaseActive
				s.Severity = 2
			},
			wantBand: BandMedium,
			wantConf: 0.62,
		},
		{
			name: "low confidence floor",
			mutate: func(s *scenario.Scenario) {
				s.CustomersAffected = 0
			},
			warnings: 20,
			wantBand: BandLow,
			wantConf: 0.15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			tt.mutate(&s)
			got := EvaluateETR(s, tt.warnings, EvaluateCrews(s))
			if got.Band != tt.wantBand {
				t.Errorf("Band = %s, want %s (%v)", got.Band, tt.wantBand, got.Rationale)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if len(got.Rationale) == 0 {
				t.Error("rationale must not be empty")
			}
			for _, r := range got.Rationale {
				if r == "" {
					t.Error("rationale entries must not be empty")
				}
			}
		})
	}
}

func TestEvaluateETR_InsufficientCrewsIsLow(t *testing.T) {
	s := baseScenario()
	s.Crews = scenario.Crews{}
	got := EvaluateETR(s, 0, EvaluateCrews(s))
	if got.Band != BandLow {
		t.Errorf("Band = %s, want LOW", got.Band)
	}
}

func TestEvaluateHazardOverrides(t *testing.T) {
	tests := []struct {
		name        string
		hazard      scenario.HazardType
		phase       scenario.Phase
		severity    int
		vegetation  float64
		wantFlags   []string
		wantBlocked []ActionType
	}{
		{name: "quiet", hazard: scenario.HazardUnknown, phase: scenario.PhaseActive, severity: 5},
		{
			name: "wildfire exposed", hazard: scenario.HazardWildfire, phase: scenario.PhasePreEvent, severity: 4, vegetation: 0.95,
			wantFlags: []string{FlagVegetationFireRisk}, wantBlocked: []ActionType{ActionDeenergizeSection},
		},
		{
			name: "ice active", hazard: scenario.HazardIce, phase: scenario.PhaseActive, severity: 2,
			wantFlags: []string{FlagIceLoadingActive}, wantBlocked: []ActionType{ActionDeenergizeSection},
		},
		{name: "ice restoration", hazard: scenario.HazardIce, phase: scenario.PhaseRestoration, severity: 2},
		{
			name: "storm active", hazard: scenario.HazardStorm, phase: scenario.PhaseActive, severity: 1,
			wantFlags: []string{FlagStormActive}, wantBlocked: []ActionType{ActionDispatchCrews, ActionRerouteLoad},
		},
		{
			name: "heat severity 3", hazard: scenario.HazardHeat, phase: scenario.PhasePreEvent, severity: 3,
			wantFlags: []string{FlagThermalOverloadRisk}, wantBlocked: []ActionType{ActionRerouteLoad},
		},
		{name: "heat severity 2", hazard: scenario.HazardHeat, phase: scenario.PhaseActive, severity: 2},
		{
			name: "rain active", hazard: scenario.HazardRain, phase: scenario.PhaseActive, severity: 3,
			wantFlags: []string{FlagFloodAccessRisk}, wantBlocked: []ActionType{ActionDispatchCrews},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			s.HazardType = tt.hazard
			s.Phase = tt.phase
			s.Severity = tt.severity
			s.Assets = []scenario.Asset{{ID: "a", Type: "span", VegetationExposure: ptr(tt.vegetation)}}

			got := EvaluateHazardOverrides(s, EvaluateAssetRisk(s))
			if len(got.Constraints) != 5 {
				t.Fatalf("expected 5 override constraints, got %d", len(got.Constraints))
			}
			if !slices.Equal(got.Flags, tt.wantFlags) {
				t.Errorf("Flags = %v, want %v", got.Flags, tt.wantFlags)
			}
			var blocked []ActionType
			for _, b := range got.Blocked {
				blocked = append(blocked, b.ActionType)
				if len(b.Remediation) == 0 {
					t.Errorf("block on %s has no remediation", b.ActionType)
				}
			}
			if !slices.Equal(blocked, tt.wantBlocked) {
				t.Errorf("Blocked = %v, want %v", blocked, tt.wantBlocked)
			}
			triggered := 0
			for _, c := range got.Constraints {
				if c.Triggered {
					triggered++
					if len(c.Evidence) == 0 {
						t.Errorf("%s triggered without evidence", c.ID)
					}
				}
			}
			if triggered != len(tt.wantFlags) {
				t.Errorf("triggered constraints = %d, want %d", triggered, len(tt.wantFlags))
			}
		})
	}
}

func TestEvaluateHazardOverrides_AerialClearanceRemediation(t *testing.T) {
	s := baseScenario()
	s.HazardType = scenario.HazardWildfire
	s.Severity = 4
	s.Assets = []scenario.Asset{{ID: "a", Type: "span", VegetationExposure: ptr(0.95)}}

	got := EvaluateHazardOverrides(s, EvaluateAssetRisk(s))
	b, ok := findBlock(got, ActionDeenergizeSection)
	if !ok {
		t.Fatal("deenergize_section should be blocked")
	}
	if !slices.ContainsFunc(b.Remediation, func(r string) bool { return r == "Confirm aerial clearance of the right-of-way" }) {
		t.Errorf("remediation should mention aerial clearance: %v", b.Remediation)
	}
}
