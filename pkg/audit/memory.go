package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage implements Storage with an in-memory map. It is intended
// for tests and dry runs.
type MemoryStorage struct {
	records map[string]*Record
	mu      sync.RWMutex
	closed  bool
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*Record),
	}
}

// Store saves a copy of record. Storing an id twice replaces the record.
func (s *MemoryStorage) Store(ctx context.Context, record *Record) error {
	if err := validateRecord(record); err != nil {
		return NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "store", errClosed)
	}
	stored := record.clone()
	if stored.RecordedAt.IsZero() {
		stored.RecordedAt = time.Now().UTC()
	}
	s.records[record.ID] = stored
	return nil
}

// Query returns copies of the matching records, newest first.
func (s *MemoryStorage) Query(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.matching(query)
	sortNewestFirst(results)

	start := query.Offset
	if start > len(results) {
		return []*Record{}, nil
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}

	out := make([]*Record, 0, end-start)
	for _, r := range results[start:end] {
		out = append(out, r.clone())
	}
	return out, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.matching(query))), nil
}

// Delete removes the matching records and returns how many were removed.
func (s *MemoryStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close marks the store closed. Further writes fail.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *MemoryStorage) matching(query *Query) []*Record {
	var results []*Record
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, record)
		}
	}
	return results
}

// matchesQuery reports whether record passes every filter of query.
func matchesQuery(record *Record, query *Query) bool {
	if query == nil {
		return true
	}
	if query.Project != "" && record.Project != query.Project {
		return false
	}
	if query.EventID != "" && record.EventID != query.EventID {
		return false
	}
	if query.Status != "" && record.Status != query.Status {
		return false
	}
	if query.RuleID != "" && !record.HasRule(query.RuleID) {
		return false
	}
	if query.StartTime != nil && record.RecordedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RecordedAt.After(*query.EndTime) {
		return false
	}
	return true
}

func sortNewestFirst(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].RecordedAt.Equal(records[j].RecordedAt) {
			return records[i].RecordedAt.After(records[j].RecordedAt)
		}
		return records[i].ID > records[j].ID
	})
}
