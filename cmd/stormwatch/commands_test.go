package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/stormwatch/pkg/advisor"
	"mercator-hq/stormwatch/pkg/api/types"
	"mercator-hq/stormwatch/pkg/cli"
	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/evidence"
	"mercator-hq/stormwatch/pkg/evidence/export"
	"mercator-hq/stormwatch/pkg/evidence/storage"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/policy/rules"
	"mercator-hq/stormwatch/pkg/scenario/source"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const stormDoc = `{
	"scenarioId": "storm-7",
	"hazardType": "STORM",
	"phase": "ACTIVE",
	"severity": 4,
	"customersAffected": 1200
}`

func newTestService(t *testing.T) *advisor.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(engine.DefaultEngineConfig().WithClock(func() time.Time { return fixedNow }), logger)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := advisor.New(advisor.Options{Engine: eng, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestEvaluateDocuments(t *testing.T) {
	svc := newTestService(t)
	var out bytes.Buffer

	err := evaluateDocuments(context.Background(), &out, svc, []document{{name: "storm.json", data: []byte(stormDoc)}}, outputOptions{pretty: true})
	if err != nil {
		t.Fatalf("evaluateDocuments() error = %v", err)
	}

	var resp engine.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not a response: %v\n%s", err, out.String())
	}
	if resp.Meta.ScenarioID != "storm-7" {
		t.Errorf("scenarioId = %q", resp.Meta.ScenarioID)
	}
	if resp.Meta.EngineVersion != engine.Version {
		t.Errorf("engineVersion = %q", resp.Meta.EngineVersion)
	}
	if !resp.HasFlag(rules.FlagStormActive) {
		t.Errorf("flags = %v, want %s", resp.EscalationFlags, rules.FlagStormActive)
	}
}

func TestEvaluateDocuments_HashOnly(t *testing.T) {
	svc := newTestService(t)
	docs := []document{
		{name: "a.json", data: []byte(stormDoc)},
		{name: "b.json", data: []byte(stormDoc)},
	}

	var single bytes.Buffer
	if err := evaluateDocuments(context.Background(), &single, svc, docs[:1], outputOptions{hashOnly: true}); err != nil {
		t.Fatal(err)
	}
	hash := strings.TrimSpace(single.String())
	if len(hash) != 16 {
		t.Fatalf("hash = %q, want 16 hex characters", hash)
	}

	var multi bytes.Buffer
	if err := evaluateDocuments(context.Background(), &multi, svc, docs, outputOptions{hashOnly: true}); err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("%s  a.json\n%s  b.json\n", hash, hash)
	if multi.String() != want {
		t.Errorf("output = %q, want %q", multi.String(), want)
	}
}

func TestEvaluateDocuments_InvalidInput(t *testing.T) {
	svc := newTestService(t)
	docs := []document{
		{name: "list.json", data: []byte(`[1, 2]`)},
		{name: "storm.json", data: []byte(stormDoc)},
	}

	var out bytes.Buffer
	err := evaluateDocuments(context.Background(), &out, svc, docs, outputOptions{})
	if cli.ExitCode(err) != cli.ExitInvalidInput {
		t.Fatalf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitInvalidInput)
	}

	dec := json.NewDecoder(&out)
	var rejected types.InvalidInputResponse
	if err := dec.Decode(&rejected); err != nil {
		t.Fatal(err)
	}
	if rejected.Error.Code != types.CodeNotObject {
		t.Errorf("code = %q, want %q", rejected.Error.Code, types.CodeNotObject)
	}
	if len(rejected.EscalationFlags) != 1 || rejected.EscalationFlags[0] != rules.FlagInvalidInput {
		t.Errorf("flags = %v", rejected.EscalationFlags)
	}

	var resp engine.Response
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("second document not evaluated: %v", err)
	}
	if resp.Meta.ScenarioID != "storm-7" {
		t.Errorf("scenarioId = %q", resp.Meta.ScenarioID)
	}
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storm.json")
	if err := os.WriteFile(path, []byte(stormDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := readDocuments(strings.NewReader(`{"phase":"ACTIVE"}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].name != "stdin" || string(docs[0].data) != `{"phase":"ACTIVE"}` {
		t.Errorf("stdin docs = %+v", docs)
	}

	docs, err = readDocuments(nil, []string{path})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].name != path {
		t.Errorf("file docs = %+v", docs)
	}

	if _, err := readDocuments(nil, []string{filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWatchSession_EvaluateAll(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.json": stormDoc,
		"b.json": `"not an object"`,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := newWatchSession(&out, newTestService(t), source.NewFileSource(dir, logger), cli.FormatText)
	if err := sess.evaluateAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "a.json") || !strings.Contains(lines[0], "scenario=storm-7") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "b.json") || !strings.Contains(lines[1], "error:") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestWatchSession_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storm.json")
	if err := os.WriteFile(path, []byte(stormDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	sess := newWatchSession(&out, newTestService(t), source.NewFileSource(dir, nil), cli.FormatJSON)
	sess.evaluatePaths(context.Background(), []string{path})

	var resp engine.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output = %q: %v", out.String(), err)
	}
	if strings.Count(out.String(), "\n") != 1 {
		t.Errorf("expected one JSON line, got %q", out.String())
	}
}

func TestSummaryLine(t *testing.T) {
	resp := &engine.Response{
		EscalationFlags: []string{"critical_load_at_risk", "storm_active"},
		BlockedActions:  make([]rules.BlockedAction, 2),
		ETR:             engine.ETR{Band: rules.BandLow, Confidence: 0.4},
		Meta:            engine.Meta{ScenarioID: "storm-7", DeterministicHash: strings.Repeat("ab", 32)},
	}
	want := "s.json  scenario=storm-7 etr=LOW confidence=0.40 blocked=2 flags=critical_load_at_risk,storm_active hash=abababababab"
	if got := summaryLine("s.json", resp); got != want {
		t.Errorf("summaryLine() = %q, want %q", got, want)
	}

	resp.EscalationFlags = nil
	if got := summaryLine("s.json", resp); !strings.Contains(got, "flags=-") {
		t.Errorf("summaryLine() = %q, want flags=-", got)
	}
}

func seedEvidence(t *testing.T, n int) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage()
	for i := range n {
		rec := &evidence.EvidenceRecord{
			ID:              fmt.Sprintf("rec-%02d", i),
			ScenarioID:      fmt.Sprintf("storm-%d", i%2),
			Hash:            strings.Repeat("c", 64),
			EngineVersion:   engine.Version,
			BlockedActions:  []string{"energize_line"},
			EscalationFlags: []string{"storm_active"},
			ETRBand:         "LOW",
			Source:          evidence.SourceCLI,
			EvaluatedAt:     fixedNow.Add(time.Duration(i) * time.Minute),
			RecordedAt:      fixedNow.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Store(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestRunEvidenceQuery(t *testing.T) {
	limits := config.NewDefaultConfig().Evidence.Query
	store := seedEvidence(t, 4)

	tests := []struct {
		name   string
		query  evidence.Query
		format cli.OutputFormat
		check  func(t *testing.T, out string)
	}{
		{
			name:   "text",
			query:  evidence.Query{ScenarioID: "storm-1"},
			format: cli.FormatText,
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "EVALUATED_AT\tSCENARIO") {
					t.Errorf("missing header: %q", out)
				}
				if !strings.Contains(out, "2 of 2 matching records") {
					t.Errorf("missing footer: %q", out)
				}
			},
		},
		{
			name:   "json",
			query:  evidence.Query{Limit: 3},
			format: cli.FormatJSON,
			check: func(t *testing.T, out string) {
				var recs []evidence.EvidenceRecord
				if err := json.Unmarshal([]byte(out), &recs); err != nil {
					t.Fatal(err)
				}
				if len(recs) != 3 {
					t.Errorf("records = %d, want 3", len(recs))
				}
				if recs[0].ID != "rec-03" {
					t.Errorf("first = %s, want newest rec-03", recs[0].ID)
				}
			},
		},
		{
			name:   "csv",
			query:  evidence.Query{},
			format: cli.FormatCSV,
			check: func(t *testing.T, out string) {
				lines := strings.Split(strings.TrimSpace(out), "\n")
				if len(lines) != 5 {
					t.Errorf("lines = %d, want header plus 4", len(lines))
				}
				if lines[0] != strings.Join(export.Header(), ",") {
					t.Errorf("header = %q", lines[0])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			q := tt.query
			if err := runEvidenceQuery(context.Background(), &out, store, &q, &limits, tt.format); err != nil {
				t.Fatalf("runEvidenceQuery() error = %v", err)
			}
			tt.check(t, out.String())
		})
	}
}

func TestRunEvidenceQuery_Invalid(t *testing.T) {
	limits := config.NewDefaultConfig().Evidence.Query
	var out bytes.Buffer
	err := runEvidenceQuery(context.Background(), &out, seedEvidence(t, 1), &evidence.Query{ETRBand: "SOON"}, &limits, cli.FormatText)

	var qerr *evidence.QueryError
	if !errors.As(err, &qerr) {
		t.Errorf("err = %v, want *evidence.QueryError", err)
	}
}

func TestRunEvidenceExport(t *testing.T) {
	limits := config.NewDefaultConfig().Evidence.Query
	store := seedEvidence(t, 5)

	exporter, err := export.ForFormat("json", false)
	if err != nil {
		t.Fatal(err)
	}

	var out, progressOut bytes.Buffer
	progress := cli.NewProgressReporter(&progressOut, "Exporting")
	if err := runEvidenceExport(context.Background(), &out, store, exporter, &evidence.Query{}, &limits, progress); err != nil {
		t.Fatalf("runEvidenceExport() error = %v", err)
	}

	var recs []evidence.EvidenceRecord
	if err := json.Unmarshal(out.Bytes(), &recs); err != nil {
		t.Fatalf("export is not a JSON array: %v\n%s", err, out.String())
	}
	if len(recs) != 5 {
		t.Errorf("exported %d records, want 5", len(recs))
	}
	if !strings.Contains(progressOut.String(), "(5/5)") {
		t.Errorf("progress = %q", progressOut.String())
	}
}

func TestCountRecords(t *testing.T) {
	in := make(chan *evidence.EvidenceRecord, 3)
	for i := range 3 {
		in <- &evidence.EvidenceRecord{ID: fmt.Sprint(i)}
	}
	close(in)

	var last int64
	out := countRecords(context.Background(), in, func(n int64) { last = n })
	var got int
	for range out {
		got++
	}
	if got != 3 || last != 3 {
		t.Errorf("forwarded %d, last count %d", got, last)
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2025-11-19T00:00:00Z/2025-11-20T00:00:00Z", false},
		{"2025-11-19T00:00:00Z", true},
		{"yesterday/2025-11-20T00:00:00Z", true},
		{"2025-11-19T00:00:00Z/today", true},
	}
	for _, tt := range tests {
		start, end, err := parseTimeRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimeRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !end.After(start) {
			t.Errorf("parseTimeRange(%q) = %v, %v", tt.in, start, end)
		}
	}
}

func TestEvidenceTable(t *testing.T) {
	rows := evidenceTable{{
		ScenarioID:      "storm-7",
		Hash:            strings.Repeat("d", 64),
		ETRBand:         "HIGH",
		BlockedActions:  []string{"a", "b"},
		EscalationFlags: []string{"storm_active"},
		Source:          evidence.SourceHTTP,
		CacheHit:        true,
		EvaluatedAt:     fixedNow,
	}}.Rows()

	want := []string{"2025-03-01T12:00:00Z", "storm-7", "HIGH", "2", "storm_active", "http", "true", "dddddddddddd"}
	if strings.Join(rows[0], "|") != strings.Join(want, "|") {
		t.Errorf("row = %v, want %v", rows[0], want)
	}
}

func TestValidateConfigFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("engine:\n  cache:\n    backend: memcached\nevents:\n  backend: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := validateConfigFile(&out, ""); err != nil {
		t.Fatalf("defaults invalid: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "✓ Configuration valid (defaults)") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	err := validateConfigFile(&out, bad)
	if cli.ExitCode(err) != cli.ExitConfig {
		t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitConfig)
	}
	if strings.Count(out.String(), "✗") < 2 {
		t.Errorf("expected every invalid field reported: %q", out.String())
	}

	out.Reset()
	if err := validateConfigFile(&out, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateScenarioFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "storm.json")
	warn := filepath.Join(dir, "odd.json")
	bad := filepath.Join(dir, "bad.json")
	for path, content := range map[string]string{
		good: stormDoc,
		warn: `{"scenarioId":"odd","severity":"very"}`,
		bad:  `{`,
	} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if err := validateScenarioFile(&out, good); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "scenario storm-7 (STORM, ACTIVE)") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := validateScenarioFile(&out, warn); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "  - ") {
		t.Errorf("expected normalization warnings: %q", out.String())
	}

	out.Reset()
	if err := validateScenarioFile(&out, bad); cli.ExitCode(err) != cli.ExitInvalidInput {
		t.Errorf("ExitCode(%v) = %d, want %d", err, cli.ExitCode(err), cli.ExitInvalidInput)
	}
}
