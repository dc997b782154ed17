// Package storagetest holds the behaviour every storage.Persister must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/openinvite/storage"
)

// Run exercises a backend. open must return a persister over the same
// location each time it is called, so reopening shows what was written.
func Run(t *testing.T, open func(t *testing.T) storage.Persister) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty backend loads empty", func(t *testing.T) {
		p := open(t)
		defer p.Close()

		got, err := p.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("save replaces per collection", func(t *testing.T) {
		p := open(t)
		require.NoError(t, p.Save(ctx, "plans", []byte(`[{"id":"1"}]`)))
		require.NoError(t, p.Save(ctx, "rsvps", []byte(`[]`)))
		require.NoError(t, p.Save(ctx, "plans", []byte(`[{"id":"2"}]`)))

		got, err := p.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string][]byte{
			"plans": []byte(`[{"id":"2"}]`),
			"rsvps": []byte(`[]`),
		}, got)
		require.NoError(t, p.Close())
	})

	t.Run("loaded data is a copy", func(t *testing.T) {
		p := open(t)
		defer p.Close()

		data := []byte(`{"a":1}`)
		require.NoError(t, p.Save(ctx, "series", data))
		data[0] = 'X'

		got, err := p.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), got["series"])

		got["series"][0] = 'Y'
		again, err := p.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"a":1}`), again["series"])
	})

	t.Run("rejects bad collection names", func(t *testing.T) {
		p := open(t)
		defer p.Close()

		for _, name := range []string{"", "../escape", "a/b", "with space"} {
			err := p.Save(ctx, name, []byte(`{}`))
			assert.True(t, storage.IsType(err, storage.ErrInvalidInput), "name %q: %v", name, err)
		}
	})
}

// RunPersistent additionally checks that data outlives Close.
func RunPersistent(t *testing.T, open func(t *testing.T) storage.Persister) {
	t.Helper()
	ctx := context.Background()

	Run(t, open)

	t.Run("survives reopen", func(t *testing.T) {
		p := open(t)
		require.NoError(t, p.Save(ctx, "social", []byte(`{"users":[]}`)))
		require.NoError(t, p.Close())

		reopened := open(t)
		defer reopened.Close()

		got, err := reopened.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"users":[]}`), got["social"])
	})
}
