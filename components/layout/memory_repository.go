package layout

import (
	"context"
	"sync"
)

// InMemoryRepository keeps encoded layout records in a map. It stores the same
// dual-written document a database adapter would, so legacy records can be
// seeded for tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	layout  StoredLayout
	density GridDensity
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]memoryRecord),
	}
}

// FetchLayout returns the stored layout or nil when none exists.
func (r *InMemoryRepository) FetchLayout(_ context.Context, key PageKey) (*PageLayoutConfig, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[key.String()]
	if !ok {
		return nil, nil
	}
	return record.layout.Normalize(record.density), nil
}

// SaveLayout upserts the record for key.
func (r *InMemoryRepository) SaveLayout(_ context.Context, key PageKey, cfg PageLayoutConfig) error {
	if err := key.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key.String()] = memoryRecord{
		layout:  EncodeStoredLayout(cfg),
		density: ParseGridDensity(string(cfg.GridDensity)),
	}
	return nil
}

// ResetLayout deletes the record for key.
func (r *InMemoryRepository) ResetLayout(_ context.Context, key PageKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key.String())
	return nil
}

// Seed stores a raw record, bypassing encoding.
func (r *InMemoryRepository) Seed(key PageKey, record StoredLayout, density GridDensity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key.String()] = memoryRecord{layout: record, density: density}
}

// Record returns the raw stored document for key.
func (r *InMemoryRepository) Record(key PageKey) (StoredLayout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[key.String()]
	return record.layout, ok
}
