package storage

import (
	"context"
	"slices"
	"sort"
	"sync"

	"mercator-hq/stormwatch/pkg/evidence"
)

// MemoryStorage implements evidence.Storage with an in-memory map. Records
// are lost on restart.
type MemoryStorage struct {
	records map[string]*evidence.EvidenceRecord
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*evidence.EvidenceRecord),
	}
}

// Store persists a copy of the record.
func (s *MemoryStorage) Store(ctx context.Context, record *evidence.EvidenceRecord) error {
	if err := ctx.Err(); err != nil {
		return evidence.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Query retrieves evidence records matching the query filters, sorted and
// paginated.
func (s *MemoryStorage) Query(ctx context.Context, query *evidence.Query) ([]*evidence.EvidenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, evidence.NewStorageError("memory", "query", err)
	}
	return s.selectRecords(query), nil
}

// QueryStream delivers the result of Query on a channel.
func (s *MemoryStorage) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.EvidenceRecord, <-chan error, error) {
	records := s.selectRecords(query)

	recordsCh := make(chan *evidence.EvidenceRecord, streamBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, record := range records {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if query.Matches(record) {
			count++
		}
	}
	return count, nil
}

// Delete removes evidence records matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if query.Matches(record) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops all records.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*evidence.EvidenceRecord)
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

func (s *MemoryStorage) selectRecords(query *evidence.Query) []*evidence.EvidenceRecord {
	s.mu.RLock()
	results := make([]*evidence.EvidenceRecord, 0)
	for _, record := range s.records {
		if query.Matches(record) {
			results = append(results, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	if query.Offset >= len(results) {
		return []*evidence.EvidenceRecord{}
	}
	results = results[query.Offset:]

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < len(results) {
		results = results[:limit]
	}
	return results
}

// sortRecords orders records by the named field, breaking ties by ID so
// results are stable across calls.
func sortRecords(records []*evidence.EvidenceRecord, sortBy, order string) {
	desc := order != "asc"

	less := func(a, b *evidence.EvidenceRecord) int {
		switch sortBy {
		case "recorded_at":
			return a.RecordedAt.Compare(b.RecordedAt)
		case "etr_confidence":
			switch {
			case a.ETRConfidence < b.ETRConfidence:
				return -1
			case a.ETRConfidence > b.ETRConfidence:
				return 1
			}
			return 0
		default:
			return a.EvaluatedAt.Compare(b.EvaluatedAt)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		c := less(records[i], records[j])
		if c == 0 {
			if desc {
				return records[i].ID > records[j].ID
			}
			return records[i].ID < records[j].ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func cloneRecord(r *evidence.EvidenceRecord) *evidence.EvidenceRecord {
	c := *r
	c.AllowedActions = slices.Clone(r.AllowedActions)
	c.BlockedActions = slices.Clone(r.BlockedActions)
	c.EscalationFlags = slices.Clone(r.EscalationFlags)
	return &c
}
