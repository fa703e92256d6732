// Package storage is the client-side view of the hosted object store.
package storage

import "context"

// Ref identifies one stored object.
type Ref struct {
	Key string
}

// ObjectStore is the slice of the platform's object API the app uses: put
// bytes, list a prefix, delete a reference.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]Ref, error)
	Delete(ctx context.Context, ref Ref) error
}
