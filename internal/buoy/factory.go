package buoy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/cache"
	"github.com/waveconnect/backend-go/internal/config"
	"github.com/waveconnect/backend-go/internal/ndbc"
	"github.com/waveconnect/backend-go/pkg/http/client"
)

type ServiceFactory interface {
	NewService(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*Service, error)
}

// DefaultServiceFactory wires the NDBC client, the chunk cache and the
// pipeline together from configuration.
type DefaultServiceFactory struct {
	// S3Client overrides the client built from the AWS environment
	S3Client cache.S3Client
}

var _ ServiceFactory = (*DefaultServiceFactory)(nil)

func (f *DefaultServiceFactory) NewService(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig) (*Service, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if cacheCfg == nil {
		cacheCfg = config.GetCacheConfig()
	}

	httpClient := client.New(client.Options{
		BaseURL:    cfg.NDBCBaseURL,
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: client.Retries(cfg.MaxRetries),
	})

	var fetcher ndbc.RawFetcher = ndbc.NewNDBCFetcher(httpClient)

	var store cache.ChunkStore
	if cacheCfg.EnableS3Cache && cfg.S3Bucket != "" {
		s3Client := f.S3Client
		if s3Client == nil {
			c, err := cache.NewS3Client(ctx)
			if err != nil {
				return nil, fmt.Errorf("creating S3 client: %w", err)
			}
			s3Client = c
		}
		store = cache.NewS3ChunkStore(s3Client, cfg.S3Bucket)
	}

	if cacheCfg.EnableLRUCache || store != nil {
		chunkCache, err := cache.NewChunkCache(cacheCfg, store)
		if err != nil {
			return nil, fmt.Errorf("creating chunk cache: %w", err)
		}
		fetcher = cache.NewCachingFetcher(fetcher, chunkCache)
	}

	log.Debug().
		Str("baseURL", cfg.NDBCBaseURL).
		Bool("lruCache", cacheCfg.EnableLRUCache).
		Bool("s3Cache", store != nil).
		Int("workers", cfg.FetchWorkers).
		Msg("Initialized buoy service")

	return NewService(fetcher,
		WithWorkers(cfg.FetchWorkers),
		WithNumDirectionBins(cfg.NumDirectionBins),
	), nil
}
