// Package scenario defines the outage scenario payload accepted from callers
// and the fully-typed record the policy rules evaluate.
//
// The two types are deliberately distinct:
//
//   - Input is the wire format. Every field is optional and typed as any, so a
//     payload with missing or wrong-typed values always decodes.
//   - Scenario is the normalized record. Every field is populated, numeric
//     values are clamped to their documented bounds and enum values belong to
//     a closed set.
//
// Normalize joins them. It never fails: malformed values degrade to
// conservative defaults and a human-readable warning is recorded for the
// caller. The warnings travel with the decision as data-quality signals.
//
// # Basic Usage
//
//	input, err := scenario.ParseInput(body)
//	if err != nil {
//	    // body was not a JSON object
//	}
//	normalized, warnings := scenario.Normalize(input)
//
// # Bounds
//
//	severity              integer in [1, 5], default 3
//	customersAffected     integer >= 0, default 0
//	crews.available       integer >= 0, default 0
//	crews.enRoute         integer >= 0, default 0
//	dataQuality.complete  [0, 1], default 0.5
//	dataQuality.freshness minutes >= 0, default 120
//	asset exposure/crit.  [0, 1] when present
package scenario
