package cache

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/internal/ndbc"
)

// CachingFetcher serves chunks from a ChunkCache and falls back to another fetcher
type CachingFetcher struct {
	next  ndbc.RawFetcher
	cache *ChunkCache
}

var _ ndbc.RawFetcher = (*CachingFetcher)(nil)

func NewCachingFetcher(next ndbc.RawFetcher, cache *ChunkCache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

// Fetch only caches bodies that hold data, so a month NDBC has not
// published yet is asked for again next time.
func (f *CachingFetcher) Fetch(ctx context.Context, buoy int, chunk models.TimeChunk, dt models.DataType) (string, error) {
	if body, ok := f.cache.Get(ctx, buoy, chunk, dt); ok {
		log.Debug().
			Int("buoy", buoy).
			Str("chunk", chunk.String()).
			Str("dataType", dt.String()).
			Msg("Chunk cache HIT")
		return body, nil
	}

	body, err := f.next.Fetch(ctx, buoy, chunk, dt)
	if err != nil {
		return "", err
	}

	if ndbc.GaveData(body) {
		if err := f.cache.Put(ctx, buoy, chunk, dt, body); err != nil {
			log.Warn().Err(err).Str("key", ChunkKey(buoy, chunk, dt)).Msg("Failed to cache chunk")
		}
	}
	return body, nil
}
