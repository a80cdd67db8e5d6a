package engine

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"mercator-hq/stormwatch/pkg/scenario"
)

// hashInput is the value the deterministic hash covers.
type hashInput struct {
	Scenario scenario.Scenario `json:"scenario"`
	Warnings []string          `json:"warnings"`
}

// Hash returns the deterministic hash of a normalized scenario and its
// warnings: xxHash64 over the canonical JSON encoding, as 16 lower-case hex
// digits. Object key order never affects the result; array order does.
func Hash(s scenario.Scenario, warnings []string) (string, error) {
	if warnings == nil {
		warnings = []string{}
	}
	canonical, err := CanonicalJSON(hashInput{Scenario: s, Warnings: warnings})
	if err != nil {
		return "", &HashError{ScenarioID: s.ScenarioID, Cause: err}
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(canonical)), nil
}

// mustHash hashes s, falling back to a textual rendering of the operator
// context when it cannot be encoded as JSON. Scenarios produced by
// scenario.Normalize from decoded JSON always encode.
func mustHash(s scenario.Scenario, warnings []string) string {
	if h, err := Hash(s, warnings); err == nil {
		return h
	}
	s.OperatorContext = fmt.Sprintf("%v", s.OperatorContext)
	h, err := Hash(s, warnings)
	if err != nil {
		// Every remaining field is a plain value.
		panic(err)
	}
	return h
}
