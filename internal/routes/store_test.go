package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/railslens/internal/workspace"
)

func writeCache(t *testing.T, layout workspace.Layout, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(layout.CacheFile()), 0755))
	require.NoError(t, os.WriteFile(layout.CacheFile(), []byte(text), 0644))
}

func TestStore_RoutesCachesPerController(t *testing.T) {
	layout := workspace.New(t.TempDir())
	writeCache(t, layout, sampleListing)

	store, err := NewStore(16)
	require.NoError(t, err)

	users, err := store.Routes(layout, "users")
	require.NoError(t, err)
	assert.Len(t, users, 6)
	for _, r := range users {
		assert.Equal(t, "users", r.Controller)
	}

	// A rewritten listing is not observed until the workspace is invalidated.
	writeCache(t, layout, "users GET /people(.:format) users#index\n")
	cached, err := store.Routes(layout, "Users")
	require.NoError(t, err)
	assert.Equal(t, users, cached)

	assert.Equal(t, 1, store.Invalidate(layout.Root))
	fresh, err := store.Routes(layout, "users")
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "/people", fresh[0].Pattern)
}

func TestStore_InvalidateIsScopedToWorkspace(t *testing.T) {
	a := workspace.New(t.TempDir())
	b := workspace.New(t.TempDir())
	writeCache(t, a, sampleListing)
	writeCache(t, b, sampleListing)

	store, err := NewStore(0)
	require.NoError(t, err)

	_, err = store.Routes(a, "users")
	require.NoError(t, err)
	_, err = store.Routes(b, "users")
	require.NoError(t, err)
	_, err = store.Routes(b, "pages")
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	assert.Equal(t, 2, store.Invalidate(b.Root))
	assert.Equal(t, 1, store.Len())
}

func TestStore_MissingCache(t *testing.T) {
	layout := workspace.New(t.TempDir())
	store, err := NewStore(4)
	require.NoError(t, err)

	_, err = store.Routes(layout, "users")
	assert.ErrorIs(t, err, ErrNoCache)
	assert.Equal(t, 0, store.Len())
}

func TestAll(t *testing.T) {
	layout := workspace.New(t.TempDir())
	writeCache(t, layout, sampleListing)

	all, err := All(layout)
	require.NoError(t, err)
	assert.Len(t, all, 8)
}
