package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/config"
	"github.com/waveconnect/backend-go/internal/models"
)

// ChunkCacheEntry wraps a cached chunk body with its expiry
type ChunkCacheEntry struct {
	Body      string
	ExpiresAt time.Time
}

// ChunkCache is a two-layer cache for raw NDBC chunks: an in-memory LRU in
// front of an optional durable ChunkStore. Safe for concurrent use.
type ChunkCache struct {
	lru           *lru.Cache[string, *ChunkCacheEntry]
	store         ChunkStore
	lruTTL        time.Duration
	historicalTTL time.Duration
	recentTTL     time.Duration
	clock         clock

	lruHits     atomic.Uint64
	lruMisses   atomic.Uint64
	storeHits   atomic.Uint64
	storeMisses atomic.Uint64
}

// NewChunkCache builds the cache from config. store may be nil.
func NewChunkCache(cfg *config.CacheConfig, store ChunkStore) (*ChunkCache, error) {
	c := &ChunkCache{
		lruTTL:        cfg.GetChunkLRUTTL(),
		historicalTTL: cfg.GetHistoricalChunkTTL(),
		recentTTL:     cfg.GetRecentChunkTTL(),
		clock:         systemClock{},
	}

	if cfg.EnableLRUCache {
		lruCache, err := lru.New[string, *ChunkCacheEntry](cfg.ChunkLRUSize)
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}
		c.lru = lruCache
	}
	if cfg.EnableS3Cache {
		c.store = store
	}

	return c, nil
}

// ChunkKey generates a unique cache key for a buoy, series and chunk
func ChunkKey(buoy int, chunk models.TimeChunk, dt models.DataType) string {
	return fmt.Sprintf("%d/%s/%s", buoy, dt, chunk)
}

// ttlFor keeps historical years much longer than the current year's months
func (c *ChunkCache) ttlFor(chunk models.TimeChunk) time.Duration {
	if chunk.IsYear() {
		return c.historicalTTL
	}
	return c.recentTTL
}

// Get looks in the LRU first, then the store, promoting store hits into the LRU
func (c *ChunkCache) Get(ctx context.Context, buoy int, chunk models.TimeChunk, dt models.DataType) (string, bool) {
	key := ChunkKey(buoy, chunk, dt)

	if c.lru != nil {
		if entry, ok := c.lru.Get(key); ok {
			if c.clock.Now().Before(entry.ExpiresAt) {
				c.lruHits.Add(1)
				return entry.Body, true
			}
			// Entry expired, remove it
			c.lru.Remove(key)
		}
		c.lruMisses.Add(1)
	}

	if c.store == nil {
		return "", false
	}

	body, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Error reading chunk store, treating as miss")
		ok = false
	}
	if !ok {
		c.storeMisses.Add(1)
		return "", false
	}

	c.storeHits.Add(1)
	c.addToLRU(key, body, chunk)
	return body, true
}

// Put saves a chunk to both layers
func (c *ChunkCache) Put(ctx context.Context, buoy int, chunk models.TimeChunk, dt models.DataType, body string) error {
	key := ChunkKey(buoy, chunk, dt)
	c.addToLRU(key, body, chunk)

	if c.store == nil {
		return nil
	}
	if err := c.store.Put(ctx, key, body, c.ttlFor(chunk)); err != nil {
		return fmt.Errorf("saving chunk to store: %w", err)
	}
	return nil
}

func (c *ChunkCache) addToLRU(key, body string, chunk models.TimeChunk) {
	if c.lru == nil {
		return
	}
	ttl := c.lruTTL
	if recent := c.ttlFor(chunk); recent < ttl {
		ttl = recent
	}
	c.lru.Add(key, &ChunkCacheEntry{
		Body:      body,
		ExpiresAt: c.clock.Now().Add(ttl),
	})
}

// GetCacheStats returns hit and miss counters for both layers
func (c *ChunkCache) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":     c.lruHits.Load(),
		"lru_misses":   c.lruMisses.Load(),
		"store_hits":   c.storeHits.Load(),
		"store_misses": c.storeMisses.Load(),
	}
}

// Clear empties the in-memory layer
func (c *ChunkCache) Clear() {
	if c.lru != nil {
		c.lru.Purge()
	}
}
