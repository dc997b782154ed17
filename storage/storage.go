// Package storage defines how plan state reaches a backend and selects a
// backend from a connection URL.
package storage

import (
	"context"
	"regexp"
)

// Persister connects the plan store with a backend (file, key-value store or
// database). The store hands over whole collections as opaque blobs; each
// Save replaces the previous blob of that collection. Please use the error
// types provided.
type Persister interface {
	// Load returns every stored collection keyed by name. A fresh backend
	// returns an empty map, not an error.
	Load(ctx context.Context) (map[string][]byte, error)
	// Save replaces the contents of one collection.
	Save(ctx context.Context, collection string, data []byte) error
	// Close releases the backend.
	Close() error
}

var collectionName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateCollection rejects names that could not be used as a file name,
// bucket key or table row on every backend.
func ValidateCollection(name string) error {
	if !collectionName.MatchString(name) {
		return &Error{
			Type:    ErrInvalidInput,
			Message: "invalid collection name: " + name,
		}
	}
	return nil
}
