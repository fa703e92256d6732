package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory ObjectStore for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	// FailPut, when set, makes Put fail for keys containing the substring.
	// Lets tests exercise mid-batch upload failures.
	FailPut string
}

// NewMemoryStore builds an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores a copy of data under key.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if s.FailPut != "" && strings.Contains(key, s.FailPut) {
		return errors.New("storage: simulated put failure")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

// List returns references for every stored key under the prefix, sorted.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var refs []Ref
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			refs = append(refs, Ref{Key: key})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
	return refs, nil
}

// Delete removes the object; absent keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref.Key)
	return nil
}

// Len reports the number of stored objects. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
