package scenario

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func mustParse(t *testing.T, payload string) Input {
	t.Helper()
	in, err := ParseInput([]byte(payload))
	if err != nil {
		t.Fatalf("ParseInput(%s) error = %v", payload, err)
	}
	return in
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		notObj  bool
	}{
		{name: "empty object", payload: `{}`},
		{name: "null", payload: `null`},
		{name: "unknown keys ignored", payload: `{"foo": 1, "bar": [1,2]}`},
		{name: "wrong typed fields", payload: `{"severity": "high", "assets": "none", "crews": 7}`},
		{name: "array", payload: `[]`, wantErr: true, notObj: true},
		{name: "string", payload: `"storm"`, wantErr: true, notObj: true},
		{name: "truncated", payload: `{"hazardType": "STORM"`, wantErr: true},
		{name: "empty body", payload: ``, wantErr: true},
		{name: "number outside float64 range", payload: `{"severity": 1e400, "operatorContext": {"x": 1e999}}`},
		{name: "trailing data", payload: `{} {}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInput([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.notObj && !errors.Is(err, ErrNotObject) {
				t.Errorf("expected ErrNotObject, got %v", err)
			}
		})
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	s, warnings := Normalize(Input{})

	if s.ScenarioID != DefaultScenarioID {
		t.Errorf("ScenarioID = %q, want %q", s.ScenarioID, DefaultScenarioID)
	}
	if s.HazardType != HazardUnknown {
		t.Errorf("HazardType = %q, want UNKNOWN", s.HazardType)
	}
	if s.Phase != PhaseUnknown {
		t.Errorf("Phase = %q, want UNKNOWN", s.Phase)
	}
	if s.Severity != DefaultSeverity {
		t.Errorf("Severity = %d, want %d", s.Severity, DefaultSeverity)
	}
	if s.CustomersAffected != 0 {
		t.Errorf("CustomersAffected = %d, want 0", s.CustomersAffected)
	}
	if s.Assets == nil || len(s.Assets) != 0 {
		t.Errorf("Assets = %v, want empty non-nil slice", s.Assets)
	}
	if s.CriticalLoads == nil || len(s.CriticalLoads) != 0 {
		t.Errorf("CriticalLoads = %v, want empty non-nil slice", s.CriticalLoads)
	}
	if s.Crews != (Crews{}) {
		t.Errorf("Crews = %+v, want zero", s.Crews)
	}
	if s.DataQuality.Completeness != DefaultCompleteness || s.DataQuality.FreshnessMinutes != DefaultFreshnessMinutes {
		t.Errorf("DataQuality = %+v, want defaults", s.DataQuality)
	}
	if s.HasLastUpdated() {
		t.Error("expected no lastUpdated")
	}

	for _, want := range []string{"hazardType", "phase", "no valid assets", "crew counts", "dataQuality"} {
		if !hasWarning(warnings, want) {
			t.Errorf("expected warning containing %q, got %v", want, warnings)
		}
	}
}

func TestNormalize_Enums(t *testing.T) {
	tests := []struct {
		name       string
		hazard     any
		phase      any
		wantHazard HazardType
		wantPhase  Phase
		wantWarn   bool
	}{
		{name: "canonical", hazard: "STORM", phase: "ACTIVE", wantHazard: HazardStorm, wantPhase: PhaseActive},
		{name: "lower case", hazard: "wildfire", phase: "restoration", wantHazard: HazardWildfire, wantPhase: PhaseRestoration},
		{name: "dashes and spaces", hazard: " ice ", phase: "pre-event", wantHazard: HazardIce, wantPhase: PhasePreEvent},
		{name: "unknown strings", hazard: "tornado", phase: "late", wantHazard: HazardUnknown, wantPhase: PhaseUnknown, wantWarn: true},
		{name: "wrong types", hazard: 42.0, phase: true, wantHazard: HazardUnknown, wantPhase: PhaseUnknown, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, warnings := Normalize(Input{HazardType: tt.hazard, Phase: tt.phase})
			if s.HazardType != tt.wantHazard {
				t.Errorf("HazardType = %q, want %q", s.HazardType, tt.wantHazard)
			}
			if s.Phase != tt.wantPhase {
				t.Errorf("Phase = %q, want %q", s.Phase, tt.wantPhase)
			}
			gotWarn := hasWarning(warnings, "not recognized")
			if gotWarn != tt.wantWarn {
				t.Errorf("recognition warning = %v, want %v (%v)", gotWarn, tt.wantWarn, warnings)
			}
		})
	}
}

func TestNormalize_Severity(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		want     int
		wantWarn string
	}{
		{name: "missing", value: nil, want: 3},
		{name: "in range", value: 4.0, want: 4},
		{name: "rounds half up", value: 2.5, want: 3},
		{name: "rounds down", value: 4.4, want: 4},
		{name: "numeric string", value: "5", want: 5},
		{name: "above range", value: 9.0, want: 5, wantWarn: "out of range"},
		{name: "below range", value: -2.0, want: 1, wantWarn: "out of range"},
		{name: "zero", value: 0.0, want: 1, wantWarn: "out of range"},
		{name: "not numeric", value: "high", want: 3, wantWarn: "not numeric"},
		{name: "object", value: map[string]any{"level": 4}, want: 3, wantWarn: "not numeric"},
		{name: "json number", value: json.Number("4"), want: 4},
		{name: "json number outside float64", value: json.Number("1e400"), want: 3, wantWarn: "severity 1e400 is not numeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, warnings := Normalize(Input{Severity: tt.value})
			if s.Severity != tt.want {
				t.Errorf("Severity = %d, want %d", s.Severity, tt.want)
			}
			if tt.wantWarn != "" && !hasWarning(warnings, tt.wantWarn) {
				t.Errorf("expected warning %q, got %v", tt.wantWarn, warnings)
			}
			if tt.wantWarn == "" && hasWarning(warnings, "severity") {
				t.Errorf("unexpected severity warning: %v", warnings)
			}
		})
	}
}

func TestNormalize_CustomersAffected(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{name: "missing", value: nil, want: 0},
		{name: "integer", value: 20000.0, want: 20000},
		{name: "floors fraction", value: 1499.9, want: 1499},
		{name: "negative", value: -10.0, want: 0},
		{name: "string", value: "250", want: 250},
		{name: "garbage", value: []any{1.0}, want: 0},
		{name: "huge", value: 1e300, want: maxCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := Normalize(Input{CustomersAffected: tt.value})
			if s.CustomersAffected != tt.want {
				t.Errorf("CustomersAffected = %d, want %d", s.CustomersAffected, tt.want)
			}
		})
	}
}

func TestNormalize_Assets(t *testing.T) {
	in := mustParse(t, `{
		"assets": [
			{"id": "a1", "type": "pole", "ageYears": 40, "vegetationExposure": 1.7, "loadCriticality": -0.2},
			{"id": "a2", "type": "feeder", "name": "Feeder 2"},
			{"id": 3, "type": "pole"},
			{"type": "pole"},
			{"id": "a5"},
			"not-an-object",
			{"id": "", "type": "pole"}
		]
	}`)

	s, warnings := Normalize(in)
	if len(s.Assets) != 2 {
		t.Fatalf("expected 2 valid assets, got %d: %+v", len(s.Assets), s.Assets)
	}

	a1 := s.Assets[0]
	if a1.ID != "a1" || a1.Type != "pole" {
		t.Errorf("unexpected first asset: %+v", a1)
	}
	if a1.AgeYears == nil || *a1.AgeYears != 40 {
		t.Errorf("AgeYears = %v, want 40", a1.AgeYears)
	}
	if a1.VegetationExposure == nil || *a1.VegetationExposure != 1 {
		t.Errorf("VegetationExposure = %v, want clamped 1", a1.VegetationExposure)
	}
	if a1.LoadCriticality == nil || *a1.LoadCriticality != 0 {
		t.Errorf("LoadCriticality = %v, want clamped 0", a1.LoadCriticality)
	}

	a2 := s.Assets[1]
	if a2.Name != "Feeder 2" {
		t.Errorf("Name = %q, want %q", a2.Name, "Feeder 2")
	}
	if a2.AgeYears != nil || a2.VegetationExposure != nil || a2.LoadCriticality != nil {
		t.Errorf("expected unset optional fields, got %+v", a2)
	}

	if hasWarning(warnings, "no valid assets") {
		t.Errorf("unexpected empty-asset warning: %v", warnings)
	}
}

func TestNormalize_AllAssetsInvalid(t *testing.T) {
	in := mustParse(t, `{"assets": [{"id": 1}, "x", null]}`)
	s, warnings := Normalize(in)
	if len(s.Assets) != 0 {
		t.Fatalf("expected no assets, got %d", len(s.Assets))
	}
	count := 0
	for _, w := range warnings {
		if strings.Contains(w, "no valid assets") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one empty-asset warning, got %d (%v)", count, warnings)
	}
}

func TestNormalize_CriticalLoads(t *testing.T) {
	in := mustParse(t, `{
		"criticalLoads": [
			{"id": "h1", "type": "hospital", "backupHoursRemaining": 2},
			{"type": "stadium", "backupHoursRemaining": -4},
			{"id": "w1", "type": "WATER"},
			42
		]
	}`)

	s, _ := Normalize(in)
	if len(s.CriticalLoads) != 3 {
		t.Fatalf("expected 3 loads, got %d", len(s.CriticalLoads))
	}
	if s.CriticalLoads[0].Type != LoadHospital || !s.CriticalLoads[0].Type.IsCriticalClass() {
		t.Errorf("first load type = %q", s.CriticalLoads[0].Type)
	}
	if got := s.CriticalLoads[1]; got.Type != LoadOther || got.ID != "critical-load-1" {
		t.Errorf("unrecognized load = %+v, want OTHER with generated id", got)
	}
	if got := s.CriticalLoads[1].BackupHoursRemaining; got == nil || *got != 0 {
		t.Errorf("negative backup hours should floor to 0, got %v", got)
	}
	if s.CriticalLoads[2].BackupHoursRemaining != nil {
		t.Errorf("missing backup hours should stay nil")
	}
}

func TestNormalize_Crews(t *testing.T) {
	s, warnings := Normalize(mustParse(t, `{"crews": {"available": 3.7, "enRoute": -1}}`))
	if s.Crews.Available != 3 || s.Crews.EnRoute != 0 {
		t.Errorf("Crews = %+v, want {3 0}", s.Crews)
	}
	if s.Crews.Total() != 3 {
		t.Errorf("Total = %d, want 3", s.Crews.Total())
	}
	if hasWarning(warnings, "crew counts") {
		t.Errorf("unexpected crew warning: %v", warnings)
	}

	_, warnings = Normalize(mustParse(t, `{"crews": "plenty"}`))
	if !hasWarning(warnings, "crew counts") {
		t.Errorf("expected crew warning for wrong-typed crews, got %v", warnings)
	}
}

func TestNormalize_DataQuality(t *testing.T) {
	s, warnings := Normalize(mustParse(t, `{"dataQuality": {"completeness": 0.9}}`))
	if s.DataQuality.Completeness != 0.9 {
		t.Errorf("Completeness = %v, want 0.9", s.DataQuality.Completeness)
	}
	if s.DataQuality.FreshnessMinutes != DefaultFreshnessMinutes {
		t.Errorf("FreshnessMinutes = %v, want default", s.DataQuality.FreshnessMinutes)
	}
	if hasWarning(warnings, "dataQuality") {
		t.Errorf("partial dataQuality should not warn: %v", warnings)
	}

	s, _ = Normalize(mustParse(t, `{"dataQuality": {"completeness": 4, "freshnessMinutes": -5}}`))
	if s.DataQuality.Completeness != 1 || s.DataQuality.FreshnessMinutes != 0 {
		t.Errorf("DataQuality = %+v, want clamped {1 0}", s.DataQuality)
	}
}

func TestNormalize_LastUpdated(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		want     time.Time
		wantWarn bool
	}{
		{name: "missing", value: nil},
		{name: "rfc3339", value: "2025-01-15T10:30:00Z", want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "offset converted to utc", value: "2025-01-15T12:30:00+02:00", want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "date only", value: "2025-01-15", want: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "yesterday", wantWarn: true},
		{name: "number", value: 1700000000.0, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, warnings := Normalize(Input{LastUpdated: tt.value})
			if !s.LastUpdated.Equal(tt.want) {
				t.Errorf("LastUpdated = %v, want %v", s.LastUpdated, tt.want)
			}
			if got := hasWarning(warnings, "lastUpdated"); got != tt.wantWarn {
				t.Errorf("lastUpdated warning = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

// Normalization must be total: any JSON object yields an in-bounds scenario.
func TestNormalize_TotalOverArbitraryObjects(t *testing.T) {
	payloads := []string{
		`{}`,
		`{"severity": null, "assets": null, "crews": null}`,
		`{"severity": true, "customersAffected": {"x": 1}, "assets": {"id": "a"}}`,
		`{"hazardType": ["STORM"], "phase": {"p": 1}, "lastUpdated": false}`,
		`{"criticalLoads": "hospital", "dataQuality": [0.9, 10]}`,
		`{"severity": 1e400, "customersAffected": -1e999, "dataQuality": {"completeness": 1e400}}`,
		`{"severity": 1e308, "customersAffected": -1e308, "crews": {"available": "NaN", "enRoute": "Infinity"}}`,
		`{"assets": [{"id": "a", "type": "t", "ageYears": "old", "vegetationExposure": "0.3"}]}`,
	}

	for _, p := range payloads {
		t.Run(p, func(t *testing.T) {
			s, warnings := Normalize(mustParse(t, p))
			if warnings == nil {
				t.Error("warnings must be non-nil")
			}
			if s.Severity < MinSeverity || s.Severity > MaxSeverity {
				t.Errorf("severity %d out of bounds", s.Severity)
			}
			if s.CustomersAffected < 0 || s.Crews.Available < 0 || s.Crews.EnRoute < 0 {
				t.Errorf("negative count in %+v", s)
			}
			if s.DataQuality.Completeness < 0 || s.DataQuality.Completeness > 1 {
				t.Errorf("completeness %v out of bounds", s.DataQuality.Completeness)
			}
			if s.DataQuality.FreshnessMinutes < 0 {
				t.Errorf("freshness %v negative", s.DataQuality.FreshnessMinutes)
			}
			for _, a := range s.Assets {
				if a.VegetationExposure != nil && (*a.VegetationExposure < 0 || *a.VegetationExposure > 1) {
					t.Errorf("vegetation exposure out of bounds: %v", *a.VegetationExposure)
				}
			}
			if _, err := json.Marshal(s); err != nil {
				t.Errorf("normalized scenario must marshal: %v", err)
			}
		})
	}
}

func TestNormalize_WarningsAreDeterministic(t *testing.T) {
	payload := `{"hazardType": "x", "phase": "y", "severity": "z", "lastUpdated": "w"}`
	_, first := Normalize(mustParse(t, payload))
	for i := 0; i < 10; i++ {
		_, again := Normalize(mustParse(t, payload))
		if strings.Join(again, "|") != strings.Join(first, "|") {
			t.Fatalf("warnings differ between runs:\n%v\n%v", first, again)
		}
	}
}
