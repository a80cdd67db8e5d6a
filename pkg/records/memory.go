package records

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]*ScenarioRecord
	assets    map[string]*AssetRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios: make(map[string]*ScenarioRecord),
		assets:    make(map[string]*AssetRecord),
	}
}

func (s *MemoryStore) CreateScenario(ctx context.Context, rec *ScenarioRecord) error {
	if err := prepareScenario(rec, now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenarios[rec.ID]; ok {
		return ErrConflict
	}
	s.scenarios[rec.ID] = cloneScenario(rec)
	return nil
}

func (s *MemoryStore) GetScenario(ctx context.Context, id string) (*ScenarioRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.scenarios[id]
	if !ok {
		return nil, notFound("scenario", id)
	}
	return cloneScenario(rec), nil
}

func (s *MemoryStore) UpdateScenario(ctx context.Context, rec *ScenarioRecord) error {
	if err := checkObject("payload", rec.Payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.scenarios[rec.ID]
	if !ok {
		return notFound("scenario", rec.ID)
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = now()
	s.scenarios[rec.ID] = cloneScenario(rec)
	return nil
}

func (s *MemoryStore) DeleteScenario(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenarios[id]; !ok {
		return notFound("scenario", id)
	}
	delete(s.scenarios, id)
	for assetID, a := range s.assets {
		if a.ScenarioID == id {
			delete(s.assets, assetID)
		}
	}
	return nil
}

func (s *MemoryStore) ListScenarios(ctx context.Context, opts ListOptions) ([]*ScenarioRecord, error) {
	opts = normalizeList(opts)

	s.mu.RLock()
	out := make([]*ScenarioRecord, 0, len(s.scenarios))
	for _, rec := range s.scenarios {
		out = append(out, cloneScenario(rec))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if opts.Offset >= len(out) {
		return []*ScenarioRecord{}, nil
	}
	out = out[opts.Offset:]
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CreateAsset(ctx context.Context, rec *AssetRecord) error {
	if err := prepareAsset(rec, now()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scenarios[rec.ScenarioID]; !ok {
		return notFound("scenario", rec.ScenarioID)
	}
	if _, ok := s.assets[rec.ID]; ok {
		return ErrConflict
	}
	s.assets[rec.ID] = cloneAsset(rec)
	return nil
}

func (s *MemoryStore) GetAsset(ctx context.Context, scenarioID, id string) (*AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.assets[id]
	if !ok || rec.ScenarioID != scenarioID {
		return nil, notFound("asset", id)
	}
	return cloneAsset(rec), nil
}

func (s *MemoryStore) UpdateAsset(ctx context.Context, rec *AssetRecord) error {
	if err := checkObject("payload", rec.Payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.assets[rec.ID]
	if !ok || existing.ScenarioID != rec.ScenarioID {
		return notFound("asset", rec.ID)
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = now()
	s.assets[rec.ID] = cloneAsset(rec)
	return nil
}

func (s *MemoryStore) DeleteAsset(ctx context.Context, scenarioID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.assets[id]
	if !ok || rec.ScenarioID != scenarioID {
		return notFound("asset", id)
	}
	delete(s.assets, id)
	return nil
}

func (s *MemoryStore) ListAssets(ctx context.Context, scenarioID string) ([]*AssetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.scenarios[scenarioID]; !ok {
		return nil, notFound("scenario", scenarioID)
	}

	out := []*AssetRecord{}
	for _, rec := range s.assets {
		if rec.ScenarioID == scenarioID {
			out = append(out, cloneAsset(rec))
		}
	}
	SortAssets(out)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// SortAssets orders assets by creation time, then id.
func SortAssets(assets []*AssetRecord) {
	sort.Slice(assets, func(i, j int) bool {
		if !assets[i].CreatedAt.Equal(assets[j].CreatedAt) {
			return assets[i].CreatedAt.Before(assets[j].CreatedAt)
		}
		return assets[i].ID < assets[j].ID
	})
}

func cloneScenario(r *ScenarioRecord) *ScenarioRecord {
	c := *r
	c.Payload = slices.Clone(r.Payload)
	return &c
}

func cloneAsset(r *AssetRecord) *AssetRecord {
	c := *r
	c.Payload = slices.Clone(r.Payload)
	return &c
}
