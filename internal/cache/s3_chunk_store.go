package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ChunkStore is the durable layer behind the in-memory chunk cache
type ChunkStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, body string, ttl time.Duration) error
}

const chunkPrefix = "ndbc/"

// S3ChunkStore keeps raw NDBC chunks in S3 as JSON records with an expiry
type S3ChunkStore struct {
	client     S3Client
	bucketName string
	clock      clock
}

// ChunkCacheRecord represents a cached chunk with metadata
type ChunkCacheRecord struct {
	Key         string `json:"key"`
	Body        string `json:"body"`
	LastUpdated int64  `json:"lastUpdated"`
	TTL         int64  `json:"ttl"`
}

var _ ChunkStore = (*S3ChunkStore)(nil)

func NewS3ChunkStore(client S3Client, bucketName string) *S3ChunkStore {
	return &S3ChunkStore{
		client:     client,
		bucketName: bucketName,
		clock:      systemClock{},
	}
}

func objectKey(key string) string {
	return chunkPrefix + key + ".json"
}

// Get returns the cached body; a missing or expired object is a miss, not an error
func (c *S3ChunkStore) Get(ctx context.Context, key string) (string, bool, error) {
	if c.bucketName == "" {
		return "", false, fmt.Errorf("empty bucket name")
	}

	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting %s from S3: %w", key, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Error().Err(err).Msg("Error closing S3 object body")
		}
	}(result.Body)

	var record ChunkCacheRecord
	if err := json.NewDecoder(result.Body).Decode(&record); err != nil {
		return "", false, fmt.Errorf("decoding cache record: %w", err)
	}

	if c.clock.Now().Unix() > record.TTL {
		log.Debug().Str("key", key).Msg("Chunk cache entry expired")
		return "", false, nil
	}

	return record.Body, true, nil
}

func (c *S3ChunkStore) Put(ctx context.Context, key, body string, ttl time.Duration) error {
	if c.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	now := c.clock.Now().Unix()
	record := ChunkCacheRecord{
		Key:         key,
		Body:        body,
		LastUpdated: now,
		TTL:         now + int64(ttl.Seconds()),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encoding cache record: %w", err)
	}

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(objectKey(key)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(body)).Msg("Saved chunk to S3 cache")
	return nil
}
