package profile

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryRepository builds an in-memory document store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{docs: make(map[string]Document)}
}

func (r *memoryRepository) Get(_ context.Context, id string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (r *memoryRepository) Create(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return errors.New("profile: document exists")
	}
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *memoryRepository) Merge(_ context.Context, id string, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		doc.Name = *patch.Name
	}
	if patch.LastLoginAt != nil {
		doc.LastLoginAt = *patch.LastLoginAt
	}
	if patch.Profile != nil {
		sub := *patch.Profile
		doc.Profile = &sub
	}
	r.docs[id] = doc
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

func (r *memoryRepository) QueryWithPhotos(_ context.Context) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var docs []Document
	for _, doc := range r.docs {
		if doc.Profile != nil && doc.Profile.HasPhotos && doc.Profile.PhotoCount > 0 {
			docs = append(docs, cloneDoc(doc))
		}
	}
	return docs, nil
}

func cloneDoc(doc Document) Document {
	if doc.Profile != nil {
		sub := *doc.Profile
		doc.Profile = &sub
	}
	return doc
}
