package project

import (
	"sync"
)

// Cache tracks cloned repository paths keyed by project id. It is an
// explicit capability handed to the coordinator; its lifetime is tied to
// the owning process and entries are invalidated explicitly, never
// implicitly persisted.
type Cache struct {
	mu    sync.RWMutex
	paths map[string]string
}

// NewCache creates an empty clone cache.
func NewCache() *Cache {
	return &Cache{paths: make(map[string]string)}
}

// Get returns the cached checkout path for a project.
func (c *Cache) Get(projectID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, ok := c.paths[projectID]
	return path, ok
}

// Put records the checkout path for a project.
func (c *Cache) Put(projectID, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths[projectID] = path
}

// Invalidate drops a single project's entry.
func (c *Cache) Invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.paths, projectID)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = make(map[string]string)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.paths)
}
