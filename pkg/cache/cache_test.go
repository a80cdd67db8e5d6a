package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"mercator-hq/stormwatch/pkg/config"
	"mercator-hq/stormwatch/pkg/policy/engine"
	"mercator-hq/stormwatch/pkg/scenario"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResponse(t *testing.T, id string) *engine.Response {
	t.Helper()
	in, err := scenario.ParseInput([]byte(`{
		"scenarioId": "` + id + `",
		"hazardType": "STORM",
		"phase": "ACTIVE",
		"severity": 4,
		"customersAffected": 1200,
		"criticalLoads": [{"id": "h1", "type": "HOSPITAL", "backupHoursRemaining": 2}]
	}`))
	if err != nil {
		t.Fatalf("ParseInput: %v", err)
	}
	return engine.Evaluate(in, fixedNow)
}

func TestKey(t *testing.T) {
	got := Key("1.0.0", "00ff00ff00ff00ff")
	if got != "1.0.0:00ff00ff00ff00ff" {
		t.Errorf("Key = %q", got)
	}
	if Key("1.0.0", "a") == Key("1.0.1", "a") {
		t.Error("keys for different engine versions collide")
	}
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(4, 0)

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	resp := sampleResponse(t, "s-1")
	key := Key(resp.Meta.EngineVersion, resp.Meta.DeterministicHash)
	if err := c.Set(ctx, key, resp); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v", ok, err)
	}
	if got.Meta.DeterministicHash != resp.Meta.DeterministicHash {
		t.Errorf("hash = %s, want %s", got.Meta.DeterministicHash, resp.Meta.DeterministicHash)
	}
	if got.CriticalLoadAtRisk != resp.CriticalLoadAtRisk {
		t.Errorf("criticalLoadAtRisk = %v, want %v", got.CriticalLoadAtRisk, resp.CriticalLoadAtRisk)
	}
	if len(got.BlockedActions) != len(resp.BlockedActions) {
		t.Errorf("blocked = %d, want %d", len(got.BlockedActions), len(resp.BlockedActions))
	}
	if !got.Timestamps.EvaluatedAt.Equal(fixedNow) {
		t.Errorf("evaluatedAt = %v", got.Timestamps.EvaluatedAt)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(4, 0)
	resp := sampleResponse(t, "s-1")
	if err := c.Set(ctx, "k", resp); err != nil {
		t.Fatal(err)
	}

	first, _, _ := c.Get(ctx, "k")
	first.EscalationFlags = append(first.EscalationFlags, "mutated")
	first.Meta.ScenarioID = "mutated"

	second, _, _ := c.Get(ctx, "k")
	if second.Meta.ScenarioID != "s-1" {
		t.Errorf("scenarioId = %q after mutating a previous copy", second.Meta.ScenarioID)
	}
	for _, f := range second.EscalationFlags {
		if f == "mutated" {
			t.Error("mutation leaked into the cache")
		}
	}

	resp.Meta.ScenarioID = "changed-after-set"
	third, _, _ := c.Get(ctx, "k")
	if third.Meta.ScenarioID != "s-1" {
		t.Error("cache shares memory with the stored response")
	}
}

func TestMemory_Eviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(2, 0)
	resp := sampleResponse(t, "s-1")

	for _, k := range []string{"a", "b"} {
		if err := c.Set(ctx, k, resp); err != nil {
			t.Fatal(err)
		}
	}
	// Touch "a" so "b" is least recently used.
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatal("a missing")
	}
	if err := c.Set(ctx, "c", resp); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key  string
		want bool
	}{
		{"a", true},
		{"b", false},
		{"c", true},
	}
	for _, tt := range tests {
		if _, ok, _ := c.Get(ctx, tt.key); ok != tt.want {
			t.Errorf("Get(%q) ok = %v, want %v", tt.key, ok, tt.want)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	c := NewMemory(4, time.Minute)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", sampleResponse(t, "s-1")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry survived its TTL")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, Len = %d", c.Len())
	}
}

func TestMemory_Close(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(4, 0)
	_ = c.Set(ctx, "k", sampleResponse(t, "s-1"))
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Close = %d", c.Len())
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	if err := c.Set(ctx, "k", sampleResponse(t, "s-1")); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get = ok %v, err %v", ok, err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		wantName string
		wantErr  bool
	}{
		{"memory", "memory", "memory", false},
		{"redis", "redis", "redis", false},
		{"none", "none", "none", false},
		{"empty is none", "", "none", false},
		{"unknown", "memcached", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig().Engine.Cache
			cfg.Backend = tt.backend

			c, err := New(&cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer c.Close()
			if c.Name() != tt.wantName {
				t.Errorf("Name = %q, want %q", c.Name(), tt.wantName)
			}
		})
	}
}

func TestRedis_Unreachable(t *testing.T) {
	cfg := config.NewDefaultConfig().Engine.Cache.Redis
	cfg.Address = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond

	c := NewRedis(&cfg, time.Minute, nil)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		t.Fatal("Ping succeeded against a closed port")
	}
	if _, ok, err := c.Get(ctx, "k"); err == nil || ok {
		t.Errorf("Get = ok %v, err %v; want error", ok, err)
	}
	if err := c.Set(ctx, "k", sampleResponse(t, "s-1")); err == nil || !strings.Contains(err.Error(), "redis set") {
		t.Errorf("Set err = %v", err)
	}
}

func TestRedis_KeyPrefix(t *testing.T) {
	cfg := config.NewDefaultConfig().Engine.Cache.Redis
	c := NewRedis(&cfg, time.Minute, nil)
	defer c.Close()

	if got := c.key("1.0.0:abc"); got != "stormwatch:decision:1.0.0:abc" {
		t.Errorf("key = %q", got)
	}
}
