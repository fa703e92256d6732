package photo

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]map[string]Record // owner id -> object key -> record
}

// NewMemoryRepository builds an in-memory photo record store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]map[string]Record)}
}

func (r *memoryRepository) Put(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.PK, rec.SK = MakeKeys(rec.OwnerID, rec.ObjectKey)
	if r.records[rec.OwnerID] == nil {
		r.records[rec.OwnerID] = make(map[string]Record)
	}
	r.records[rec.OwnerID][rec.ObjectKey] = rec
	return nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, ownerID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var records []Record
	for _, rec := range r.records[ownerID] {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ObjectKey < records[j].ObjectKey })
	return records, nil
}

func (r *memoryRepository) Delete(_ context.Context, ownerID, objectKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owned := r.records[ownerID]; owned != nil {
		delete(owned, objectKey)
	}
	return nil
}
