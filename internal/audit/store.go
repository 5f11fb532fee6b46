// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package audit

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage. Suitable for
// development and testing; data is lost on restart.
type MemoryStore struct {
	records []Record
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates an in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		records: make([]Record, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Save persists a record.
func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Enforce max length by removing the oldest 10%.
	if len(s.records) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount == 0 {
			removeCount = 1
		}
		s.records = slices.Delete(s.records, 0, removeCount)
	}

	s.records = append(s.records, *record)
	return nil
}

// Query retrieves records matching the filter, most recent first.
func (s *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Record
	skipped := 0

	for i := len(s.records) - 1; i >= 0; i-- {
		record := s.records[i]
		if !matchesFilter(&record, &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		results = append(results, record)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}

	return results, nil
}

// Count returns the number of records matching the filter.
func (s *MemoryStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.records {
		if matchesFilter(&s.records[i], &filter) {
			count++
		}
	}
	return count, nil
}

// Delete removes records older than the cutoff.
func (s *MemoryStore) Delete(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for i := range s.records {
		if s.records[i].Timestamp.Before(before) {
			removed++
			continue
		}
		kept = append(kept, s.records[i])
	}
	s.records = kept
	return removed, nil
}

// matchesFilter reports whether a record passes every filter clause.
func matchesFilter(record *Record, filter *QueryFilter) bool {
	if len(filter.Kinds) > 0 && !slices.Contains(filter.Kinds, record.Kind) {
		return false
	}
	if len(filter.Categories) > 0 && !slices.Contains(filter.Categories, record.Category) {
		return false
	}
	if len(filter.Severities) > 0 && !slices.Contains(filter.Severities, record.Severity) {
		return false
	}
	if filter.UserID != "" && record.UserID != filter.UserID {
		return false
	}
	if filter.ClientIP != "" && record.ClientIP != filter.ClientIP {
		return false
	}
	if filter.Since != nil && record.Timestamp.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && record.Timestamp.After(*filter.Until) {
		return false
	}
	return true
}
