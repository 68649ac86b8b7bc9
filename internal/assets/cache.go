package assets

import (
	"fmt"
	"sync"

	"github.com/Faultbox/pmviewer/pkg/pixbuf"
)

// Cache keeps decoded textures for the lifetime of a Loader, keyed by
// container path and texture index.
type Cache struct {
	images map[string]*pixbuf.Image
	mu     sync.RWMutex

	hits   int
	misses int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		images: make(map[string]*pixbuf.Image),
	}
}

func cacheKey(path string, index int) string {
	return fmt.Sprintf("%s#%d", path, index)
}

// Get returns the decoded texture index of the container at path.
func (c *Cache) Get(path string, index int) (*pixbuf.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, ok := c.images[cacheKey(path, index)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return img, ok
}

// Set stores a decoded texture.
func (c *Cache) Set(path string, index int, img *pixbuf.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[cacheKey(path, index)] = img
}

// Len returns the number of cached textures.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear drops every texture and resets the statistics.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = make(map[string]*pixbuf.Image)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
