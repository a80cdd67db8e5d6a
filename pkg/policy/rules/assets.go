package rules

import (
	"math"

	"mercator-hq/stormwatch/pkg/scenario"
)

// Per-asset defaults used when an attribute is not supplied.
const (
	DefaultAssetAgeYears      = 15.0
	DefaultVegetationExposure = 0.4
	DefaultLoadCriticality    = 0.5
)

// ElevatedAssetRiskScore is the score at which elevated_asset_risk fires.
const ElevatedAssetRiskScore = 75

const (
	ageSaturationYears      = 60.0
	thermalStressSeverity   = 4
	fireRiskVegetation      = 0.7
	windConductorVegetation = 0.6

	assetWeightAge         = 35.0
	assetWeightVegetation  = 25.0
	assetWeightCriticality = 30.0
	assetWeightSeverity    = 10.0

	assumptionNoAssets = "No assets supplied; fleet-average defaults assumed"
)

// hazardMultipliers scale the raw asset score per hazard. Hazards that are
// not listed use 1.0.
var hazardMultipliers = map[scenario.HazardType]float64{
	scenario.HazardStorm:    1.25,
	scenario.HazardWildfire: 1.4,
	scenario.HazardRain:     1.1,
}

// AssetAverages are fleet averages over the scenario's assets, with per-asset
// defaults substituted for missing attributes.
type AssetAverages struct {
	AgeYears           float64
	VegetationExposure float64
	LoadCriticality    float64
	// Defaulted is true when the scenario had no assets and the averages are
	// the fleet defaults.
	Defaulted bool
}

// Averages computes AssetAverages for s.
func Averages(s scenario.Scenario) AssetAverages {
	if len(s.Assets) == 0 {
		return AssetAverages{
			AgeYears:           DefaultAssetAgeYears,
			VegetationExposure: DefaultVegetationExposure,
			LoadCriticality:    DefaultLoadCriticality,
			Defaulted:          true,
		}
	}
	var age, veg, crit float64
	for _, a := range s.Assets {
		age += valueOr(a.AgeYears, DefaultAssetAgeYears)
		veg += valueOr(a.VegetationExposure, DefaultVegetationExposure)
		crit += valueOr(a.LoadCriticality, DefaultLoadCriticality)
	}
	n := float64(len(s.Assets))
	return AssetAverages{AgeYears: age / n, VegetationExposure: veg / n, LoadCriticality: crit / n}
}

// AssetRisk is the result of EvaluateAssetRisk.
type AssetRisk struct {
	Finding

	// Score is the aggregate asset risk in [0, 100].
	Score    int
	Averages AssetAverages

	// VegetationFireRisk is true under WILDFIRE with high average exposure.
	// The hazard overrides act on it.
	VegetationFireRisk bool
}

// EvaluateAssetRisk scores the scenario's assets and raises the asset-level
// escalation flags.
func EvaluateAssetRisk(s scenario.Scenario) AssetRisk {
	avg := Averages(s)
	out := AssetRisk{Averages: avg}
	out.Source = SourceAssetRisk

	ageFactor := clampUnit(avg.AgeYears / ageSaturationYears)
	raw := ageFactor*assetWeightAge +
		avg.VegetationExposure*assetWeightVegetation +
		avg.LoadCriticality*assetWeightCriticality +
		(float64(s.Severity)/scenario.MaxSeverity)*assetWeightSeverity
	multiplier := hazardMultiplier(s.HazardType)
	out.Score = int(math.Max(0, math.Min(100, math.Round(raw*multiplier))))

	out.driver("asset_risk_score", out.Score, 1)
	out.driver("avg_asset_age_years", round2(avg.AgeYears), assetWeightAge/100)
	out.driver("avg_vegetation_exposure", round2(avg.VegetationExposure), assetWeightVegetation/100)
	out.driver("avg_load_criticality", round2(avg.LoadCriticality), assetWeightCriticality/100)
	out.driver("severity", s.Severity, assetWeightSeverity/100)
	out.driver("hazard_multiplier", multiplier, 0)

	if avg.Defaulted {
		out.Assumptions = append(out.Assumptions, assumptionNoAssets)
	}

	if s.HazardType == scenario.HazardHeat && s.Severity >= thermalStressSeverity {
		out.flag(FlagThermalStress)
	}
	if s.HazardType == scenario.HazardWildfire && avg.VegetationExposure >= fireRiskVegetation {
		out.VegetationFireRisk = true
		out.flag(FlagVegetationFireRisk)
	}
	if s.HazardType == scenario.HazardStorm && avg.VegetationExposure >= windConductorVegetation {
		out.flag(FlagHighWindConductorRisk)
	}
	if out.Score >= ElevatedAssetRiskScore {
		out.flag(FlagElevatedAssetRisk)
	}
	return out
}

func hazardMultiplier(h scenario.HazardType) float64 {
	if m, ok := hazardMultipliers[h]; ok {
		return m
	}
	return 1.0
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func clampUnit(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
