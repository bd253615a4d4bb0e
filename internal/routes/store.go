package routes

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/toyz/railslens/internal/errors"
	"github.com/toyz/railslens/internal/models"
	"github.com/toyz/railslens/internal/workspace"
)

// DefaultStoreSize bounds the number of (workspace, controller) entries kept in memory
const DefaultStoreSize = 256

// ErrNoCache is returned when the workspace has no route listing cache file yet
var ErrNoCache = stderrors.New("route listing cache not built")

// Key identifies the routes of one controller inside one workspace
type Key struct {
	Workspace  string
	Controller string
}

// Store caches parsed routes per (workspace, controller). Entries live until the
// workspace is invalidated, which happens when its routing definition is saved.
type Store struct {
	cache *lru.Cache[Key, []models.Route]
}

// NewStore creates a route store holding at most size entries
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultStoreSize
	}
	cache, err := lru.New[Key, []models.Route](size)
	if err != nil {
		return nil, errors.WrapConfigurationError("route cache size", err)
	}
	return &Store{cache: cache}, nil
}

// Routes returns the routes of controller from the workspace's cached listing.
// The listing is grep-filtered on "<controller>#" before parsing, and only exact
// case-insensitive controller matches are kept.
func (s *Store) Routes(layout workspace.Layout, controller string) ([]models.Route, error) {
	key := Key{Workspace: layout.Root, Controller: strings.ToLower(controller)}
	if routes, ok := s.cache.Get(key); ok {
		return routes, nil
	}

	text, err := ReadCache(layout)
	if err != nil {
		return nil, err
	}

	routes := Filter(Parse(grepController(text, controller)), controller)
	s.cache.Add(key, routes)
	return routes, nil
}

// Invalidate drops every entry of the workspace
func (s *Store) Invalidate(root string) int {
	removed := 0
	for _, key := range s.cache.Keys() {
		if key.Workspace == root && s.cache.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	return s.cache.Len()
}

// ReadCache returns the cached route listing text of the workspace
func ReadCache(layout workspace.Layout) (string, error) {
	data, err := os.ReadFile(layout.CacheFile())
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", ErrNoCache
		}
		return "", errors.WrapFileSystemError("read", layout.CacheFile(), err)
	}
	return string(data), nil
}

// All parses the complete cached listing of the workspace
func All(layout workspace.Layout) ([]models.Route, error) {
	text, err := ReadCache(layout)
	if err != nil {
		return nil, err
	}
	return Parse(text), nil
}
