package scenario

import (
	"fmt"
	"math"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultScenarioID       = "unspecified"
	DefaultSeverity         = 3
	DefaultCompleteness     = 0.5
	DefaultFreshnessMinutes = 120.0

	MinSeverity = 1
	MaxSeverity = 5
)

// Normalize converts an untrusted Input into a fully-populated Scenario.
// It never fails. Every value that is missing or malformed is replaced by a
// conservative default, and a warning describing the substitution is
// appended to the returned slice (in field order, so the result is
// deterministic).
func Normalize(in Input) (Scenario, []string) {
	n := &normalizer{}

	s := Scenario{
		ScenarioID:        n.scenarioID(in.ScenarioID),
		HazardType:        n.hazard(in.HazardType),
		Phase:             n.phase(in.Phase),
		Severity:          n.severity(in.Severity),
		CustomersAffected: n.customers(in.CustomersAffected),
		Assets:            n.assets(in.Assets),
		CriticalLoads:     n.criticalLoads(in.CriticalLoads),
		Crews:             n.crews(in.Crews),
		LastUpdated:       n.lastUpdated(in.LastUpdated),
		DataQuality:       n.dataQuality(in.DataQuality),
		OperatorContext:   in.OperatorContext,
	}

	if n.warnings == nil {
		n.warnings = []string{}
	}
	return s, n.warnings
}

// normalizer accumulates warnings while fields are coerced.
type normalizer struct {
	warnings []string
}

func (n *normalizer) warn(format string, args ...any) {
	n.warnings = append(n.warnings, fmt.Sprintf(format, args...))
}

func (n *normalizer) scenarioID(v any) string {
	if s, ok := toString(v); ok {
		return s
	}
	if f, ok := toFloat(v); ok && f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return DefaultScenarioID
}

func (n *normalizer) hazard(v any) HazardType {
	if v == nil {
		n.warn("hazardType not provided; treated as UNKNOWN")
		return HazardUnknown
	}
	if s, ok := toString(v); ok {
		key := HazardType(enumKey(s))
		for _, h := range HazardTypes {
			if key == h {
				return h
			}
		}
	}
	n.warn("hazardType %s not recognized; treated as UNKNOWN", describe(v))
	return HazardUnknown
}

func (n *normalizer) phase(v any) Phase {
	if v == nil {
		n.warn("phase not provided; treated as UNKNOWN")
		return PhaseUnknown
	}
	if s, ok := toString(v); ok {
		key := Phase(enumKey(s))
		for _, p := range Phases {
			if key == p {
				return p
			}
		}
	}
	n.warn("phase %s not recognized; treated as UNKNOWN", describe(v))
	return PhaseUnknown
}

func (n *normalizer) severity(v any) int {
	if v == nil {
		return DefaultSeverity
	}
	f, ok := toFloat(v)
	if !ok {
		n.warn("severity %s is not numeric; defaulted to %d", describe(v), DefaultSeverity)
		return DefaultSeverity
	}
	rounded := math.Round(f)
	clamped := clamp(rounded, MinSeverity, MaxSeverity)
	if clamped != rounded {
		n.warn("severity %s out of range; clamped to %d", describe(v), int(clamped))
	}
	return int(clamped)
}

func (n *normalizer) customers(v any) int {
	if v == nil {
		return 0
	}
	c, ok := toCount(v)
	if !ok {
		n.warn("customersAffected %s is not numeric; defaulted to 0", describe(v))
		return 0
	}
	return c
}

// assets keeps entries that have a string id and type. Invalid entries are
// dropped without individual warnings.
func (n *normalizer) assets(v any) []Asset {
	out := []Asset{}
	items, _ := v.([]any)
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, okID := obj["id"].(string)
		typ, okType := obj["type"].(string)
		if !okID || !okType || id == "" || typ == "" {
			continue
		}
		a := Asset{
			ID:                 id,
			Type:               typ,
			AgeYears:           toNonNegative(obj["ageYears"]),
			VegetationExposure: toUnit(obj["vegetationExposure"]),
			LoadCriticality:    toUnit(obj["loadCriticality"]),
		}
		if name, ok := toString(obj["name"]); ok {
			a.Name = name
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		n.warn("no valid assets supplied; asset risk uses fleet-average defaults")
	}
	return out
}

func (n *normalizer) criticalLoads(v any) []CriticalLoad {
	out := []CriticalLoad{}
	items, _ := v.([]any)
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		load := CriticalLoad{
			ID:                   fmt.Sprintf("critical-load-%d", i),
			Type:                 LoadOther,
			BackupHoursRemaining: toNonNegative(obj["backupHoursRemaining"]),
		}
		if id, ok := toString(obj["id"]); ok {
			load.ID = id
		}
		if name, ok := toString(obj["name"]); ok {
			load.Name = name
		}
		if s, ok := toString(obj["type"]); ok {
			key := CriticalLoadType(enumKey(s))
			for _, t := range CriticalLoadTypes {
				if key == t {
					load.Type = t
					break
				}
			}
		}
		out = append(out, load)
	}
	return out
}

func (n *normalizer) crews(v any) Crews {
	obj, ok := v.(map[string]any)
	if !ok {
		n.warn("crew counts not provided; assuming 0 available and 0 en route")
		return Crews{}
	}
	available, _ := toCount(obj["available"])
	enRoute, _ := toCount(obj["enRoute"])
	return Crews{Available: available, EnRoute: enRoute}
}

func (n *normalizer) lastUpdated(v any) (t time.Time) {
	if v == nil {
		return t
	}
	s, ok := toString(v)
	if ok {
		if parsed, ok := parseTimestamp(s); ok {
			return parsed
		}
	}
	n.warn("lastUpdated %s is not a valid timestamp; ignored", describe(v))
	return t
}

func (n *normalizer) dataQuality(v any) DataQuality {
	obj, ok := v.(map[string]any)
	if !ok {
		n.warn("dataQuality not provided; assuming completeness %.1f and freshness %.0f minutes",
			DefaultCompleteness, DefaultFreshnessMinutes)
		return DataQuality{
			Completeness:     DefaultCompleteness,
			FreshnessMinutes: DefaultFreshnessMinutes,
		}
	}
	dq := DataQuality{
		Completeness:     DefaultCompleteness,
		FreshnessMinutes: DefaultFreshnessMinutes,
	}
	if c := toUnit(obj["completeness"]); c != nil {
		dq.Completeness = *c
	}
	if f := toNonNegative(obj["freshnessMinutes"]); f != nil {
		dq.FreshnessMinutes = *f
	}
	return dq
}
