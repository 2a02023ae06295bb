package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// LRU Cache settings
	ChunkLRUSize       int
	ChunkLRUTTLMinutes int

	// S3 chunk store settings. Historical yearly files rarely change, the
	// current year's monthly files are rewritten by NDBC every hour.
	HistoricalChunkTTLDays int
	RecentChunkTTLMinutes  int

	// Batch processing settings
	BatchSize       int
	MaxBatchRetries int

	// General settings
	EnableLRUCache bool
	EnableS3Cache  bool
}

const (
	// Default values
	defaultChunkLRUSize           = 256
	defaultChunkLRUTTLMinutes     = 60
	defaultHistoricalChunkTTLDays = 30
	defaultRecentChunkTTLMinutes  = 30
	defaultBatchSize              = 25
	defaultMaxBatchRetries        = 3
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		ChunkLRUSize:           getEnvInt("CACHE_CHUNK_LRU_SIZE", defaultChunkLRUSize),
		ChunkLRUTTLMinutes:     getEnvInt("CACHE_CHUNK_LRU_TTL_MINUTES", defaultChunkLRUTTLMinutes),
		HistoricalChunkTTLDays: getEnvInt("CACHE_HISTORICAL_TTL_DAYS", defaultHistoricalChunkTTLDays),
		RecentChunkTTLMinutes:  getEnvInt("CACHE_RECENT_TTL_MINUTES", defaultRecentChunkTTLMinutes),
		BatchSize:              getEnvInt("CACHE_BATCH_SIZE", defaultBatchSize),
		MaxBatchRetries:        getEnvInt("CACHE_MAX_BATCH_RETRIES", defaultMaxBatchRetries),
		EnableLRUCache:         getEnvBool("CACHE_ENABLE_LRU", true),
		EnableS3Cache:          getEnvBool("CACHE_ENABLE_S3", true),
	}

	log.Debug().
		Int("ChunkLRUSize", config.ChunkLRUSize).
		Int("ChunkLRUTTLMinutes", config.ChunkLRUTTLMinutes).
		Int("HistoricalChunkTTLDays", config.HistoricalChunkTTLDays).
		Int("RecentChunkTTLMinutes", config.RecentChunkTTLMinutes).
		Int("BatchSize", config.BatchSize).
		Int("MaxBatchRetries", config.MaxBatchRetries).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableS3Cache", config.EnableS3Cache).
		Msg("Cache configuration loaded")

	return config
}

// Helper methods for the CacheConfig struct
func (c *CacheConfig) GetChunkLRUTTL() time.Duration {
	return time.Duration(c.ChunkLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetHistoricalChunkTTL() time.Duration {
	return time.Duration(c.HistoricalChunkTTLDays) * 24 * time.Hour
}

func (c *CacheConfig) GetRecentChunkTTL() time.Duration {
	return time.Duration(c.RecentChunkTTLMinutes) * time.Minute
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
