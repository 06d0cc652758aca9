// Package bindings generates, compiles and caches the per-platform-version
// binding archives that acceptance checks are built against.
package bindings

import (
	"fmt"
	"sync"
)

// Cache maps a platform-version directory to its compiled bindings archive.
// It has a single writer (the setup path) and becomes read-only afterwards;
// reads are safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	artifacts map[string]string
}

// NewCache creates an empty artifact cache
func NewCache() *Cache {
	return &Cache{artifacts: make(map[string]string)}
}

// Register records the compiled archive for a version directory. Entries are
// write-once; registering a directory twice is an error.
func (c *Cache) Register(versionDir, archive string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.artifacts[versionDir]; ok {
		return fmt.Errorf("bindings archive for %s already registered (%s)", versionDir, existing)
	}
	c.artifacts[versionDir] = archive
	return nil
}

// Artifact returns the cached archive path for a version directory
func (c *Cache) Artifact(versionDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	archive, ok := c.artifacts[versionDir]
	return archive, ok
}

// Len returns the number of cached archives
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.artifacts)
}
