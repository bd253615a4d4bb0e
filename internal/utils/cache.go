package utils

import (
	"os"
	"sync"
	"time"
)

// CacheItem represents a cached value together with the file stamp it was derived from
type CacheItem[V any] struct {
	Value   V
	ModTime time.Time
	Size    int64
}

// FileCache memoizes values derived from files on disk. An entry is valid only while
// the file keeps the modification time and size it had when the entry was stored.
type FileCache[V any] struct {
	items map[string]*CacheItem[V]
	mutex sync.RWMutex
}

// NewFileCache creates an empty file cache
func NewFileCache[V any]() *FileCache[V] {
	return &FileCache[V]{
		items: make(map[string]*CacheItem[V]),
	}
}

// Get returns the cached value for path when the file is unchanged since it was stored.
// Stale entries are evicted.
func (c *FileCache[V]) Get(path string) (V, bool) {
	c.mutex.RLock()
	item, exists := c.items[path]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if stat, err := os.Stat(path); err == nil {
		if stat.ModTime().Equal(item.ModTime) && stat.Size() == item.Size {
			return item.Value, true
		}
	}

	c.Delete(path)
	return zero, false
}

// Load returns the cached value for path, or derives it with load and stores it.
// The file is stat'ed before load so a concurrent rewrite leaves a stale stamp behind
// and is picked up on the next call.
func (c *FileCache[V]) Load(path string, load func(path string) (V, error)) (V, error) {
	if value, ok := c.Get(path); ok {
		return value, nil
	}

	stat, statErr := os.Stat(path)
	value, err := load(path)
	if err != nil {
		return value, err
	}

	if statErr == nil {
		c.mutex.Lock()
		c.items[path] = &CacheItem[V]{
			Value:   value,
			ModTime: stat.ModTime(),
			Size:    stat.Size(),
		}
		c.mutex.Unlock()
	}

	return value, nil
}

// Delete removes the entry for path
func (c *FileCache[V]) Delete(path string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, path)
}
