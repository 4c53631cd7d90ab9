package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"eligo/internal/linkage"
)

// InMemoryStore holds the candidate pool in memory. List hands out a copy
// so callers can never mutate the shared pool.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []linkage.Candidate
}

// NewInMemoryStore creates a store pre-populated with the given records.
func NewInMemoryStore(records []linkage.Candidate) *InMemoryStore {
	return &InMemoryStore{records: records}
}

// NewInMemoryStoreFromFile loads a JSON snapshot of candidate records.
// A missing file is not an error: linkage treats an empty pool as valid
// input, so the service can start before the snapshot is provisioned.
func NewInMemoryStoreFromFile(path string) (*InMemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewInMemoryStore(nil), nil
		}
		return nil, fmt.Errorf("read pool snapshot: %w", err)
	}

	var records []linkage.Candidate
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse pool snapshot %s: %w", path, err)
	}
	return NewInMemoryStore(records), nil
}

// List returns the pool in load order.
func (s *InMemoryStore) List(_ context.Context) ([]linkage.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]linkage.Candidate{}, s.records...), nil
}

// Replace swaps the pool contents. Used by snapshot reload paths and tests.
func (s *InMemoryStore) Replace(records []linkage.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]linkage.Candidate{}, records...)
}
