package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/scenario"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func flaggedResponse(t *testing.T) *engine.Response {
	t.Helper()
	in, err := scenario.ParseInput([]byte(`{
		"scenarioId": "storm-7",
		"hazardType": "STORM",
		"phase": "ACTIVE",
		"severity": 5,
		"customersAffected": 40000,
		"criticalLoads": [{"id": "h1", "type": "HOSPITAL", "backupHoursRemaining": 1}]
	}`))
	if err != nil {
		t.Fatalf("ParseInput: %v", err)
	}
	resp := engine.Evaluate(in, fixedNow)
	if len(resp.EscalationFlags) == 0 {
		t.Fatal("expected escalation flags for fixture")
	}
	return resp
}

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewEvaluationEvent(t *testing.T) {
	resp := flaggedResponse(t)
	evt := NewEvaluationEvent(resp, "req-1")

	if evt.ID == "" {
		t.Error("missing event ID")
	}
	if evt.Type != TypeEvaluationCompleted {
		t.Errorf("Type = %q", evt.Type)
	}
	if evt.ScenarioID != "storm-7" || evt.RequestID != "req-1" {
		t.Errorf("ids = %q/%q", evt.ScenarioID, evt.RequestID)
	}
	if evt.Hash != resp.Meta.DeterministicHash {
		t.Errorf("Hash = %q", evt.Hash)
	}
	if len(evt.BlockedActions) != len(resp.BlockedActions) {
		t.Errorf("blocked = %v", evt.BlockedActions)
	}
	if !evt.EvaluatedAt.Equal(fixedNow) {
		t.Errorf("EvaluatedAt = %v", evt.EvaluatedAt)
	}

	evt.EscalationFlags[0] = "mutated"
	if resp.EscalationFlags[0] == "mutated" {
		t.Error("event shares flag slice with response")
	}

	other := NewEvaluationEvent(resp, "req-1")
	if other.ID == evt.ID {
		t.Error("event IDs repeat")
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	p := NewLogPublisher(logger)
	if err := p.Publish(context.Background(), NewEvaluationEvent(flaggedResponse(t), "")); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"evaluation event"`, `"scenario_id":"storm-7"`, `"component":"events"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &recordingWriter{}
	p := newKafkaPublisher(w, "stormwatch.evaluations", slog.Default())

	evt := NewEvaluationEvent(flaggedResponse(t), "req-1")
	if err := p.Publish(ctx, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("wrote %d messages", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "storm-7" {
		t.Errorf("Key = %q", msg.Key)
	}

	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if decoded.ID != evt.ID || decoded.Hash != evt.Hash {
		t.Errorf("decoded = %+v", decoded)
	}

	headers := make(map[string]string)
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event-type"] != TypeEvaluationCompleted {
		t.Errorf("event-type header = %q", headers["event-type"])
	}
	if !strings.Contains(headers["traceparent"], "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("traceparent header = %q", headers["traceparent"])
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close: err %v, closed %v", err, w.closed)
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := newKafkaPublisher(&recordingWriter{err: boom}, "t", slog.Default())

	err := p.Publish(context.Background(), NewEvaluationEvent(flaggedResponse(t), ""))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EventsConfig
		wantName string
		wantErr  bool
	}{
		{"log", config.EventsConfig{Backend: "log"}, "log", false},
		{"none", config.EventsConfig{Backend: "none"}, "none", false},
		{"kafka", config.EventsConfig{Backend: "kafka", Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}}, "kafka", false},
		{"kafka without brokers", config.EventsConfig{Backend: "kafka", Kafka: config.KafkaConfig{Topic: "t"}}, "", true},
		{"kafka without topic", config.EventsConfig{Backend: "kafka", Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}}}, "", true},
		{"unknown", config.EventsConfig{Backend: "nats"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(&tt.cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer p.Close()
			if p.Name() != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}
