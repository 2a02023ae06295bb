package ndbc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/pkg/http/client"
)

func TestChunkPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		chunk models.TimeChunk
		dt    models.DataType
		want  string
	}{
		{
			name:  "historical meteorological",
			chunk: models.YearChunk(2009),
			dt:    models.Meteorological,
			want:  "/view_text_file.php?filename=46022h2009.txt.gz&dir=data/historical/stdmet/",
		},
		{
			name:  "historical density",
			chunk: models.YearChunk(2009),
			dt:    models.SpecDensity,
			want:  "/view_text_file.php?filename=46022w2009.txt.gz&dir=data/historical/swden/",
		},
		{
			name:  "historical alpha1",
			chunk: models.YearChunk(2010),
			dt:    models.DirectionAlpha1,
			want:  "/view_text_file.php?filename=46022d2010.txt.gz&dir=data/historical/swdir/",
		},
		{
			name:  "historical alpha2",
			chunk: models.YearChunk(2010),
			dt:    models.DirectionAlpha2,
			want:  "/view_text_file.php?filename=46022i2010.txt.gz&dir=data/historical/swdir2/",
		},
		{
			name:  "historical r1",
			chunk: models.YearChunk(2010),
			dt:    models.DirectionR1,
			want:  "/view_text_file.php?filename=46022j2010.txt.gz&dir=data/historical/swr1/",
		},
		{
			name:  "historical r2",
			chunk: models.YearChunk(2010),
			dt:    models.DirectionR2,
			want:  "/view_text_file.php?filename=46022k2010.txt.gz&dir=data/historical/swr2/",
		},
		{
			name:  "monthly meteorological",
			chunk: models.MonthChunk(3, 2024),
			dt:    models.Meteorological,
			want:  "/view_text_file.php?filename=4602232024.txt.gz&dir=data/stdmet/Mar/",
		},
		{
			name:  "monthly alpha2",
			chunk: models.MonthChunk(11, 2024),
			dt:    models.DirectionAlpha2,
			want:  "/view_text_file.php?filename=46022112024.txt.gz&dir=data/swdir2/Nov/",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ChunkPath(46022, tt.chunk, tt.dt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunkPathErrors(t *testing.T) {
	t.Parallel()

	_, err := ChunkPath(46022, models.YearChunk(2009), models.DataType(9))
	var typeErr *UnsupportedDataTypeError
	assert.True(t, errors.As(err, &typeErr))

	_, err = ChunkPath(46022, models.MonthChunk(13, 2024), models.SpecDensity)
	assert.Error(t, err)
}

func TestGaveData(t *testing.T) {
	t.Parallel()

	assert.True(t, GaveData(swden2009))
	assert.True(t, GaveData(""))
	assert.False(t, GaveData("<html><body>Unable to access data file</body></html>"))
}

func TestNDBCFetcher(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/view_text_file.php", r.URL.Path)
		switch r.URL.Query().Get("filename") {
		case "46022w2009.txt.gz":
			assert.Equal(t, "data/historical/swden/", r.URL.Query().Get("dir"))
			_, _ = w.Write([]byte(swden2009))
		case "46022h2009.txt.gz":
			_, _ = w.Write([]byte("Unable to access data file"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher := NewNDBCFetcher(client.New(client.Options{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}))
	ctx := context.Background()

	t.Run("returns body", func(t *testing.T) {
		body, err := fetcher.Fetch(ctx, 46022, models.YearChunk(2009), models.SpecDensity)
		require.NoError(t, err)
		assert.Equal(t, swden2009, body)
		assert.True(t, GaveData(body))
	})

	t.Run("no data sentinel passes through", func(t *testing.T) {
		body, err := fetcher.Fetch(ctx, 46022, models.YearChunk(2009), models.Meteorological)
		require.NoError(t, err)
		assert.False(t, GaveData(body))
	})

	t.Run("non success status", func(t *testing.T) {
		_, err := fetcher.Fetch(ctx, 46022, models.YearChunk(2001), models.DirectionR2)
		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})

	t.Run("transport error", func(t *testing.T) {
		failing := NewNDBCFetcher(&client.Client{
			GetFunc: func(ctx context.Context, path string) (*client.Response, error) {
				return nil, errors.New("connection refused")
			},
		})
		_, err := failing.Fetch(ctx, 46022, models.YearChunk(2009), models.SpecDensity)
		var fetchErr *FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Contains(t, err.Error(), "connection refused")
	})
}
