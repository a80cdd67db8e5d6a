package types

import (
	"encoding/json"

	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/records"
)

// RecordRequest is the body of scenario and asset create and update
// requests. Payload must be a JSON object.
type RecordRequest struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ScenarioList is the response of GET /v1/scenarios.
type ScenarioList struct {
	Scenarios []*records.ScenarioRecord `json:"scenarios"`
	Limit     int                       `json:"limit"`
	Offset    int                       `json:"offset"`
}

// AssetList is the response of GET /v1/scenarios/{id}/assets.
type AssetList struct {
	Assets []*records.AssetRecord `json:"assets"`
}

// EvidenceList is the response of GET /v1/evidence.
type EvidenceList struct {
	Records []*evidence.EvidenceRecord `json:"records"`
	Total   int64                      `json:"total"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}
