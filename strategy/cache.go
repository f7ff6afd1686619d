package strategy

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of entries each cache of a Cache holds by default.
const DefaultCacheSize = 512

// Cache holds fetched metadata payloads and anchored L1 block numbers. Anchors never change
// once computed, and metadata payloads are content addressed. A nil *Cache caches nothing.
type Cache struct {
	metadata *lru.Cache[string, []byte]
	blocks   *lru.Cache[string, uint64]
}

// NewCache returns a cache bounded to size entries per kind.
func NewCache(size int) (*Cache, error) {
	metadata, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	blocks, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, err
	}

	return &Cache{metadata: metadata, blocks: blocks}, nil
}

// Metadata returns the cached payload of uri.
func (c *Cache) Metadata(uri string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	return c.metadata.Get(uri)
}

// AddMetadata caches the payload of uri.
func (c *Cache) AddMetadata(uri string, payload []byte) {
	if c == nil {
		return
	}
	c.metadata.Add(uri, payload)
}

// L1Block returns the cached anchored block of key.
func (c *Cache) L1Block(key string) (uint64, bool) {
	if c == nil {
		return 0, false
	}

	return c.blocks.Get(key)
}

// AddL1Block caches an anchored block.
func (c *Cache) AddL1Block(key string, block uint64) {
	if c == nil {
		return
	}
	c.blocks.Add(key, block)
}

// Purge empties the cache.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.metadata.Purge()
	c.blocks.Purge()
}
