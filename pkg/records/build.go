package records

import (
	"fmt"
	"slices"

	"mercator-hq/stormwatch/pkg/scenario"
)

// BuildInput assembles the scenario input for evaluation from a stored
// scenario and its assets.
//
// Asset records are appended after any inline assets of the scenario
// payload, ordered by creation time then id. An asset payload without an
// "id" takes the record id. A scenario payload without "scenarioId" takes
// the scenario record id. When asset records exist and the inline "assets"
// value is not an array, the inline value is replaced.
func BuildInput(rec *ScenarioRecord, assets []*AssetRecord) (scenario.Input, error) {
	in, err := scenario.ParseInput(rec.Payload)
	if err != nil {
		return scenario.Input{}, fmt.Errorf("scenario %q: %w", rec.ID, err)
	}

	if in.ScenarioID == nil {
		in.ScenarioID = rec.ID
	}

	if len(assets) == 0 {
		return in, nil
	}

	ordered := slices.Clone(assets)
	SortAssets(ordered)

	inline, _ := in.Assets.([]any)
	merged := make([]any, 0, len(inline)+len(ordered))
	merged = append(merged, inline...)

	for _, a := range ordered {
		var obj map[string]any
		if err := scenario.DecodeJSON(a.Payload, &obj); err != nil {
			return scenario.Input{}, fmt.Errorf("asset %q: %w", a.ID, err)
		}
		if obj == nil {
			obj = map[string]any{}
		}
		if _, ok := obj["id"]; !ok {
			obj["id"] = a.ID
		}
		merged = append(merged, obj)
	}

	in.Assets = merged
	return in, nil
}
