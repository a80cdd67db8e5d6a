package records

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// prepareScenario validates rec and fills its id and timestamps for create.
func prepareScenario(rec *ScenarioRecord, now time.Time) error {
	if err := checkObject("payload", rec.Payload); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func prepareAsset(rec *AssetRecord, now time.Time) error {
	if rec.ScenarioID == "" {
		return &InvalidRecordError{Field: "scenarioId", Reason: "required"}
	}
	if err := checkObject("payload", rec.Payload); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

// checkObject requires data to be a JSON object and compacts it.
func checkObject(field string, data json.RawMessage) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &InvalidRecordError{Field: field, Reason: "must be a JSON object"}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return &InvalidRecordError{Field: field, Reason: err.Error()}
	}
	return nil
}

// now truncates to milliseconds so timestamps survive a SQLite round trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
