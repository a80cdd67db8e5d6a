// Stormwatch is a deterministic outage policy evaluation engine and service.
//
// It evaluates grid outage scenarios against a fixed set of operational
// safety rules and returns the allowed and blocked actions, escalation
// flags and an estimated time to restoration band.
//
// Usage:
//
//	# Start the HTTP service
//	stormwatch run --config /etc/stormwatch/config.yaml
//
//	# Evaluate a scenario file
//	stormwatch evaluate storm.json --pretty
//
//	# Re-evaluate scenarios whenever they change
//	stormwatch watch ./scenarios
//
//	# Query the audit trail
//	stormwatch evidence query --scenario storm-7
package main

func main() {
	Execute()
}
