package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// HazardType is the hazard driving the outage.
type HazardType string

const (
	HazardStorm    HazardType = "STORM"
	HazardWildfire HazardType = "WILDFIRE"
	HazardRain     HazardType = "RAIN"
	HazardIce      HazardType = "ICE"
	HazardHeat     HazardType = "HEAT"
	HazardUnknown  HazardType = "UNKNOWN"
)

// HazardTypes lists every recognized hazard, UNKNOWN excluded.
var HazardTypes = []HazardType{HazardStorm, HazardWildfire, HazardRain, HazardIce, HazardHeat}

// Phase is the lifecycle phase of the event.
type Phase string

const (
	PhasePreEvent    Phase = "PRE_EVENT"
	PhaseActive      Phase = "ACTIVE"
	PhaseRestoration Phase = "RESTORATION"
	PhaseUnknown     Phase = "UNKNOWN"
)

// Phases lists every recognized phase, UNKNOWN excluded.
var Phases = []Phase{PhasePreEvent, PhaseActive, PhaseRestoration}

// CriticalLoadType classifies a critical facility.
type CriticalLoadType string

const (
	LoadHospital          CriticalLoadType = "HOSPITAL"
	LoadWater             CriticalLoadType = "WATER"
	LoadTelecom           CriticalLoadType = "TELECOM"
	LoadShelter           CriticalLoadType = "SHELTER"
	LoadEmergencyServices CriticalLoadType = "EMERGENCY_SERVICES"
	LoadOther             CriticalLoadType = "OTHER"
)

// CriticalLoadTypes lists every recognized load type.
var CriticalLoadTypes = []CriticalLoadType{
	LoadHospital, LoadWater, LoadTelecom, LoadShelter, LoadEmergencyServices, LoadOther,
}

// IsCriticalClass reports whether the load is a life-safety class load
// (hospital, water or telecom).
func (t CriticalLoadType) IsCriticalClass() bool {
	return t == LoadHospital || t == LoadWater || t == LoadTelecom
}

// Input is the untrusted scenario payload as received from callers.
// Fields are left untyped so that any JSON value decodes; Normalize is
// responsible for interpreting them.
type Input struct {
	ScenarioID        any `json:"scenarioId,omitempty"`
	HazardType        any `json:"hazardType,omitempty"`
	Phase             any `json:"phase,omitempty"`
	Severity          any `json:"severity,omitempty"`
	CustomersAffected any `json:"customersAffected,omitempty"`
	Assets            any `json:"assets,omitempty"`
	CriticalLoads     any `json:"criticalLoads,omitempty"`
	Crews             any `json:"crews,omitempty"`
	LastUpdated       any `json:"lastUpdated,omitempty"`
	DataQuality       any `json:"dataQuality,omitempty"`
	OperatorContext   any `json:"operatorContext,omitempty"`
}

// ErrNotObject is returned by ParseInput when the payload is valid JSON but
// not a JSON object.
var ErrNotObject = errors.New("scenario payload must be a JSON object")

// ParseInput decodes a JSON payload into an Input. It only fails when the
// payload is not syntactically valid JSON or is not an object; field-level
// problems are left for Normalize. Numbers are kept as json.Number, so a
// value outside float64 range is normalized like any other non-numeric value.
func ParseInput(data []byte) (Input, error) {
	var raw any
	if err := DecodeJSON(data, &raw); err != nil {
		return Input{}, fmt.Errorf("invalid scenario JSON: %w", err)
	}
	switch raw.(type) {
	case map[string]any, nil:
	default:
		return Input{}, ErrNotObject
	}

	var in Input
	if err := DecodeJSON(data, &in); err != nil {
		return Input{}, fmt.Errorf("invalid scenario JSON: %w", err)
	}
	return in, nil
}

// DecodeJSON decodes a single JSON value from data into v, keeping numbers
// as json.Number. Trailing data after the value is an error.
func DecodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

// Scenario is the normalized, fully-populated scenario record.
// It is produced by Normalize and treated as immutable afterwards.
type Scenario struct {
	ScenarioID        string         `json:"scenarioId"`
	HazardType        HazardType     `json:"hazardType"`
	Phase             Phase          `json:"phase"`
	Severity          int            `json:"severity"`
	CustomersAffected int            `json:"customersAffected"`
	Assets            []Asset        `json:"assets"`
	CriticalLoads     []CriticalLoad `json:"criticalLoads"`
	Crews             Crews          `json:"crews"`
	LastUpdated       time.Time      `json:"lastUpdated"`
	DataQuality       DataQuality    `json:"dataQuality"`
	OperatorContext   any            `json:"operatorContext"`
}

// Asset is a physical asset involved in the outage. Optional numeric
// attributes stay nil when the caller did not supply them so that
// evaluators can apply their own per-asset defaults.
type Asset struct {
	ID                 string   `json:"id"`
	Type               string   `json:"type"`
	Name               string   `json:"name,omitempty"`
	AgeYears           *float64 `json:"ageYears,omitempty"`
	VegetationExposure *float64 `json:"vegetationExposure,omitempty"`
	LoadCriticality    *float64 `json:"loadCriticality,omitempty"`
}

// CriticalLoad is a facility whose supply must be protected.
type CriticalLoad struct {
	ID                   string           `json:"id"`
	Type                 CriticalLoadType `json:"type"`
	Name                 string           `json:"name,omitempty"`
	BackupHoursRemaining *float64         `json:"backupHoursRemaining,omitempty"`
}

// Crews holds crew counts.
type Crews struct {
	Available int `json:"available"`
	EnRoute   int `json:"enRoute"`
}

// Total returns available plus en-route crews.
func (c Crews) Total() int {
	return c.Available + c.EnRoute
}

// DataQuality describes how trustworthy the scenario data is.
type DataQuality struct {
	// Completeness is the fraction of expected telemetry present, in [0, 1].
	Completeness float64 `json:"completeness"`

	// FreshnessMinutes is the age of the newest telemetry in minutes.
	FreshnessMinutes float64 `json:"freshnessMinutes"`
}

// HasLastUpdated reports whether the input carried a valid last-updated time.
func (s Scenario) HasLastUpdated() bool {
	return !s.LastUpdated.IsZero()
}

// IsActive reports whether the event is in the ACTIVE phase.
func (s Scenario) IsActive() bool {
	return s.Phase == PhaseActive
}
