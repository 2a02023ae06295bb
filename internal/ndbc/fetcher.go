package ndbc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/pkg/http/client"
)

const (
	DefaultBaseURL = "http://www.ndbc.noaa.gov"

	// noDataMarker appears in the body NDBC serves for a missing file
	noDataMarker = "Unable to access"
)

// RawFetcher returns the raw text of one archive chunk
type RawFetcher interface {
	Fetch(ctx context.Context, buoy int, chunk models.TimeChunk, dt models.DataType) (string, error)
}

type archiveLocation struct {
	separator string
	dir       string
}

var archiveLocations = map[models.DataType]archiveLocation{
	models.Meteorological:  {separator: "h", dir: "stdmet"},
	models.SpecDensity:     {separator: "w", dir: "swden"},
	models.DirectionAlpha1: {separator: "d", dir: "swdir"},
	models.DirectionAlpha2: {separator: "i", dir: "swdir2"},
	models.DirectionR1:     {separator: "j", dir: "swr1"},
	models.DirectionR2:     {separator: "k", dir: "swr2"},
}

// GaveData reports whether a fetched body holds data rather than the NDBC
// "Unable to access" page.
func GaveData(body string) bool {
	return !strings.Contains(body, noDataMarker)
}

// ChunkPath builds the view_text_file.php request path for a chunk
func ChunkPath(buoy int, chunk models.TimeChunk, dt models.DataType) (string, error) {
	loc, ok := archiveLocations[dt]
	if !ok {
		return "", NewUnsupportedDataTypeError(dt)
	}

	var filename, dir string
	if chunk.IsYear() {
		filename = fmt.Sprintf("%d%s%d.txt.gz", buoy, loc.separator, chunk.Year)
		dir = fmt.Sprintf("data/historical/%s/", loc.dir)
	} else {
		if chunk.Month < 1 || chunk.Month > 12 {
			return "", fmt.Errorf("invalid month in chunk %s", chunk)
		}
		filename = fmt.Sprintf("%d%d%d.txt.gz", buoy, chunk.Month, chunk.Year)
		dir = fmt.Sprintf("data/%s/%s/", loc.dir, time.Month(chunk.Month).String()[:3])
	}

	return fmt.Sprintf("/view_text_file.php?filename=%s&dir=%s", filename, dir), nil
}

// NDBCFetcher fetches chunks from the NDBC web archive
type NDBCFetcher struct {
	httpClient client.Interface
}

var _ RawFetcher = (*NDBCFetcher)(nil)

func NewNDBCFetcher(httpClient client.Interface) *NDBCFetcher {
	return &NDBCFetcher{httpClient: httpClient}
}

func (f *NDBCFetcher) Fetch(ctx context.Context, buoy int, chunk models.TimeChunk, dt models.DataType) (string, error) {
	path, err := ChunkPath(buoy, chunk, dt)
	if err != nil {
		return "", err
	}

	log.Debug().
		Int("buoy", buoy).
		Str("chunk", chunk.String()).
		Str("dataType", dt.String()).
		Msg("Fetching NDBC chunk")

	resp, err := f.httpClient.Get(ctx, path)
	if err != nil {
		return "", NewFetchError(fmt.Sprintf("fetching %s", path), 0, err)
	}
	if resp == nil {
		return "", NewFetchError("no response from NDBC", 0, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewFetchError(fmt.Sprintf("fetching %s", path), resp.StatusCode, nil)
	}

	return string(resp.Body), nil
}
