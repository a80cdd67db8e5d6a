package rules

// Escalation flags raised by the evaluators. The string values are part of
// the response contract and must not change.
const (
	FlagInvalidInput          = "invalid_input"
	FlagThermalStress         = "thermal_stress"
	FlagVegetationFireRisk    = "vegetation_fire_risk"
	FlagHighWindConductorRisk = "high_wind_conductor_risk"
	FlagElevatedAssetRisk     = "elevated_asset_risk"
	FlagCriticalLoadAtRisk    = "critical_load_at_risk"
	FlagBackupPowerShort      = "backup_power_short"
	FlagInsufficientCrews     = "insufficient_crews"
	FlagIceLoadingActive      = "ice_loading_active"
	FlagStormActive           = "storm_active"
	FlagThermalOverloadRisk   = "thermal_overload_risk"
	FlagFloodAccessRisk       = "flood_access_risk"
)

// KnownFlags lists every flag the evaluators can raise, sorted.
var KnownFlags = []string{
	FlagBackupPowerShort,
	FlagCriticalLoadAtRisk,
	FlagElevatedAssetRisk,
	FlagFloodAccessRisk,
	FlagHighWindConductorRisk,
	FlagIceLoadingActive,
	FlagInsufficientCrews,
	FlagInvalidInput,
	FlagStormActive,
	FlagThermalOverloadRisk,
	FlagThermalStress,
	FlagVegetationFireRisk,
}
