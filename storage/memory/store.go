// memory based implementation for testing purposes
package memory

import (
	"bytes"
	"context"
	"net/url"
	"sync"

	"github.com/cyp0633/openinvite/storage"
)

func init() {
	storage.Register("memory", func(*url.URL) (storage.Persister, error) {
		return New(), nil
	})
}

// Store implements storage.Persister using an in-memory map
type Store struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	closed bool
}

// New creates a new in-memory storage
func New() *Store {
	return &Store{
		blobs: make(map[string][]byte),
	}
}

func (s *Store) Load(_ context.Context) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	out := make(map[string][]byte, len(s.blobs))
	for name, data := range s.blobs {
		out[name] = bytes.Clone(data)
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, collection string, data []byte) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed()
	}
	s.blobs[collection] = bytes.Clone(data)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func errClosed() error {
	return &storage.Error{
		Type:    storage.ErrBackendFailed,
		Message: "store is closed",
	}
}
