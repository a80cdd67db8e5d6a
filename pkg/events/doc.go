// Package events publishes evaluation.completed events for decisions that
// raised escalation flags, so downstream systems can page operators or
// update dashboards without polling the evidence store.
//
// Backends are a structured-log publisher, a Kafka publisher built on
// github.com/segmentio/kafka-go and a no-op. Publishing is best effort:
// callers log failures and never let them affect a decision.
package events
