package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Verify mockS3Client implements S3Client interface
var _ S3Client = (*mockS3Client)(nil)

type mockS3Client struct {
	getObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	putObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getObjectFunc != nil {
		return m.getObjectFunc(ctx, params, optFns...)
	}
	return &s3.GetObjectOutput{}, nil
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// memoryS3 returns a mock client backed by a map
func memoryS3() *mockS3Client {
	var mu sync.Mutex
	objects := make(map[string][]byte)
	return &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			data, err := io.ReadAll(params.Body)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			defer mu.Unlock()
			objects[*params.Key] = data
			return &s3.PutObjectOutput{}, nil
		},
		getObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			data, ok := objects[*params.Key]
			if !ok {
				return nil, &types.NoSuchKey{}
			}
			return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
		},
	}
}

// fakeClock implements a mock time source for testing
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestStore(client S3Client, clk clock) *S3ChunkStore {
	store := NewS3ChunkStore(client, "test-bucket")
	store.clock = clk
	return store
}

func TestS3ChunkStoreGet(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	encode := func(record ChunkCacheRecord) []byte {
		data, err := json.Marshal(record)
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name      string
		getObject func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
		wantBody  string
		wantHit   bool
		wantErr   bool
	}{
		{
			name: "valid record",
			getObject: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				assert.Equal(t, "test-bucket", *params.Bucket)
				assert.Equal(t, "ndbc/46022/specDensity/2009.json", *params.Key)
				return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(encode(ChunkCacheRecord{
					Key:         "46022/specDensity/2009",
					Body:        "raw chunk",
					LastUpdated: now.Add(-time.Hour).Unix(),
					TTL:         now.Add(time.Hour).Unix(),
				})))}, nil
			},
			wantBody: "raw chunk",
			wantHit:  true,
		},
		{
			name: "expired record",
			getObject: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(encode(ChunkCacheRecord{
					Body: "stale",
					TTL:  now.Add(-time.Minute).Unix(),
				})))}, nil
			},
		},
		{
			name: "missing object",
			getObject: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return nil, &types.NoSuchKey{}
			},
		},
		{
			name: "s3 failure",
			getObject: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return nil, errors.New("access denied")
			},
			wantErr: true,
		},
		{
			name: "invalid json",
			getObject: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("invalid json"))}, nil
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(&mockS3Client{getObjectFunc: tt.getObject}, &fakeClock{now: now})

			body, hit, err := store.Get(context.Background(), "46022/specDensity/2009")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestS3ChunkStorePut(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("writes record with expiry", func(t *testing.T) {
		client := &mockS3Client{
			putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				assert.Equal(t, "test-bucket", *params.Bucket)
				assert.Equal(t, "ndbc/46022/meteorological/2024-03.json", *params.Key)

				body, _ := io.ReadAll(params.Body)
				var record ChunkCacheRecord
				require.NoError(t, json.Unmarshal(body, &record))
				assert.Equal(t, "46022/meteorological/2024-03", record.Key)
				assert.Equal(t, "payload", record.Body)
				assert.Equal(t, now.Unix(), record.LastUpdated)
				assert.Equal(t, now.Add(30*time.Minute).Unix(), record.TTL)
				return &s3.PutObjectOutput{}, nil
			},
		}
		store := newTestStore(client, &fakeClock{now: now})
		require.NoError(t, store.Put(context.Background(), "46022/meteorological/2024-03", "payload", 30*time.Minute))
	})

	t.Run("s3 error", func(t *testing.T) {
		client := &mockS3Client{
			putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				return nil, &types.NoSuchBucket{}
			},
		}
		store := newTestStore(client, &fakeClock{now: now})
		assert.Error(t, store.Put(context.Background(), "k", "v", time.Minute))
	})

	t.Run("empty bucket", func(t *testing.T) {
		store := NewS3ChunkStore(memoryS3(), "")
		assert.Error(t, store.Put(context.Background(), "k", "v", time.Minute))
		_, _, err := store.Get(context.Background(), "k")
		assert.Error(t, err)
	})
}

func TestS3ChunkStoreRoundTrip(t *testing.T) {
	clk := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(memoryS3(), clk)
	ctx := context.Background()

	_, hit, err := store.Get(ctx, "46022/specDensity/2009")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, store.Put(ctx, "46022/specDensity/2009", "chunk body", time.Hour))

	body, hit, err := store.Get(ctx, "46022/specDensity/2009")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "chunk body", body)

	clk.Advance(2 * time.Hour)
	_, hit, err = store.Get(ctx, "46022/specDensity/2009")
	require.NoError(t, err)
	assert.False(t, hit)
}
