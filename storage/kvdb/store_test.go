package kvdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/cyp0633/openinvite/storage"
	"github.com/cyp0633/openinvite/storage/storagetest"
)

func TestStore_Persister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openinvite.db")
	storagetest.RunPersistent(t, func(t *testing.T) storage.Persister {
		s, err := Open(path)
		require.NoError(t, err)
		return s
	})
}

func TestNewStore_SharedDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	db, err := bolt.Open(path, 0o600, nil)
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "plans", []byte(`[]`)))
	require.NoError(t, s.Close())

	// the caller's handle is still usable
	err = db.View(func(tx *bolt.Tx) error {
		assert.Equal(t, []byte(`[]`), tx.Bucket([]byte(bucketCollections)).Get([]byte("plans")))
		return nil
	})
	require.NoError(t, err)
}

func TestOpen_KVDBScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "url.db")
	p, err := storage.Open("kvdb://" + path)
	require.NoError(t, err)
	defer p.Close()
	assert.IsType(t, &Store{}, p)

	_, err = Open("")
	assert.True(t, storage.IsType(err, storage.ErrInvalidInput))
}
