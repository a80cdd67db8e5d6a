// Package engine turns an outage scenario into a deterministic, explainable
// decision envelope.
//
// # Architecture
//
// Evaluation is a one-way pipeline with no shared state:
//
//	raw payload (scenario.Input)
//	       ↓
//	scenario.Normalize → Scenario + warnings
//	       ↓
//	rules evaluators → one immutable Finding each
//	       ↓
//	Resolve (deny-wins, default policy)
//	       ↓
//	Assemble (flags, constraints, explainability, hash)
//	       ↓
//	Response
//
// # Precedence
//
// Findings are resolved in evaluator order: critical loads, hazard
// overrides, asset risk, crews. Any block on an action wins over every allow
// of the same action. The response classifies each of the seven action
// types exactly once.
//
// # Basic Usage
//
//	resp := engine.Evaluate(input, time.Now())
//	if resp.CriticalLoadAtRisk {
//	    // deenergize_section is guaranteed to be blocked
//	}
//
// Engine adds logging and optional tracing around the same functions:
//
//	eng, err := engine.New(engine.DefaultEngineConfig(), logger)
//	resp := eng.Evaluate(ctx, input)
//
// # Determinism
//
// Meta.DeterministicHash is xxHash64 over the canonical JSON of the
// normalized scenario and its warnings. Canonical JSON sorts object keys at
// every depth, so key order in the caller's payload never changes the hash.
// The evaluation time is not hashed.
//
// # Thread Safety
//
// Evaluate, EvaluateScenario and Engine are safe for concurrent use.
package engine
