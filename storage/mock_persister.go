package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPersister implements the Persister interface for testing
type MockPersister struct {
	mock.Mock
}

// Load implements the Persister interface
func (m *MockPersister) Load(ctx context.Context) (map[string][]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]byte), args.Error(1)
}

// Save implements the Persister interface
func (m *MockPersister) Save(ctx context.Context, collection string, data []byte) error {
	args := m.Called(ctx, collection, data)
	return args.Error(0)
}

// Close implements the Persister interface
func (m *MockPersister) Close() error {
	args := m.Called()
	return args.Error(0)
}
