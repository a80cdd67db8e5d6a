// Package rules contains the domain evaluators that inspect a normalized
// outage scenario and report what they found.
//
// Each evaluator is a pure function from scenario.Scenario to a value that
// embeds a Finding. A Finding lists explainability drivers, allowed and
// blocked actions, escalation flags, safety constraints and assumptions.
// Evaluators never see each other's output except where a dependency is
// explicit in the function signature (the hazard overrides consume the asset
// assessment, the ETR evaluator consumes the crew assessment).
//
// Combining findings into a single verdict per action is the job of the
// resolver in package engine; nothing in this package decides conflicts.
//
// # Evaluators
//
//	EvaluateAssetRisk        aggregate 0-100 asset risk score
//	EvaluateCriticalLoads    critical-service continuity and backup runway
//	EvaluateCrews            crew sufficiency against estimated need
//	EvaluateETR              restoration-time confidence band
//	EvaluateHazardOverrides  hazard-specific action blocks
package rules
