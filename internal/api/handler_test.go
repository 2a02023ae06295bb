package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveconnect/backend-go/internal/buoy"
	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/internal/ndbc"
	"github.com/waveconnect/backend-go/internal/spectra"
)

func TestSuccess(t *testing.T) {
	tests := []struct {
		name     string
		response interface{}
		wantType string
	}{
		{
			name:     "buoys response",
			response: NewBuoysResponse(models.KnownBuoys()),
			wantType: "buoys",
		},
		{
			name:     "error response",
			response: NewErrorResponse("test error"),
			wantType: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Success(tt.response)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, got.StatusCode)

			var resp APIResponse
			require.NoError(t, json.Unmarshal([]byte(got.Body), &resp))
			assert.Equal(t, tt.wantType, resp.ResponseType)

			assert.Equal(t, "application/json", got.Headers["Content-Type"])
			assert.Equal(t, "*", got.Headers["Access-Control-Allow-Origin"])
		})
	}
}

func TestSuccessUnmarshalable(t *testing.T) {
	got, err := Success(map[string]interface{}{"bad": make(chan int)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
}

func TestError(t *testing.T) {
	got, err := Error("bad things", http.StatusNotFound)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, got.StatusCode)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(got.Body), &resp))
	assert.Equal(t, "error", resp.ResponseType)
	assert.Equal(t, "bad things", resp.Error)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid parameter", NewInvalidParameterError("buoy", "is required"), http.StatusBadRequest},
		{"invalid range", ndbc.NewInvalidRangeError("start after stop"), http.StatusBadRequest},
		{"wrapped invalid range", fmt.Errorf("planning: %w", ndbc.NewInvalidRangeError("x")), http.StatusBadRequest},
		{"too many direction bins", spectra.NewInvalidDirectionBinsError(361), http.StatusBadRequest},
		{"no data", buoy.NewNoDataAvailableError(46022, time.Time{}, time.Time{}), http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestParseRecordsRequest(t *testing.T) {
	start := time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(2009, 1, 2, 0, 0, 0, 0, time.UTC)
	eight := 8
	maxBins := spectra.MaxDirectionBins

	tests := []struct {
		name      string
		params    map[string]string
		want      RecordsRequest
		wantParam string
	}{
		{
			name:   "iso times",
			params: map[string]string{"buoy": "46022", "start": "2009-01-01T00:00:00", "stop": "2009-01-02T00:00:00"},
			want:   RecordsRequest{Buoy: 46022, Start: start, Stop: stop},
		},
		{
			name:   "rfc3339 and dates with bins",
			params: map[string]string{"buoy": "46022", "start": "2009-01-01T01:00:00+01:00", "stop": "2009-01-02", "numDirBins": "8"},
			want:   RecordsRequest{Buoy: 46022, Start: start, Stop: stop, NumDirectionBins: &eight},
		},
		{
			name:      "missing buoy",
			params:    map[string]string{"start": "2009-01-01", "stop": "2009-01-02"},
			wantParam: "buoy",
		},
		{
			name:      "bad buoy",
			params:    map[string]string{"buoy": "-3", "start": "2009-01-01", "stop": "2009-01-02"},
			wantParam: "buoy",
		},
		{
			name:      "missing start",
			params:    map[string]string{"buoy": "46022", "stop": "2009-01-02"},
			wantParam: "start",
		},
		{
			name:      "bad stop",
			params:    map[string]string{"buoy": "46022", "start": "2009-01-01", "stop": "yesterday"},
			wantParam: "stop",
		},
		{
			name:      "negative bins",
			params:    map[string]string{"buoy": "46022", "start": "2009-01-01", "stop": "2009-01-02", "numDirBins": "-1"},
			wantParam: "numDirBins",
		},
		{
			name:      "bins above one per degree",
			params:    map[string]string{"buoy": "46022", "start": "2009-01-01", "stop": "2009-01-02", "numDirBins": "2000000000"},
			wantParam: "numDirBins",
		},
		{
			name:   "bins at the limit",
			params: map[string]string{"buoy": "46022", "start": "2009-01-01", "stop": "2009-01-02", "numDirBins": "360"},
			want: RecordsRequest{
				Buoy:             46022,
				Start:            start,
				Stop:             stop,
				NumDirectionBins: &maxBins,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRecordsRequest(tt.params)
			if tt.wantParam != "" {
				var paramErr *InvalidParameterError
				require.True(t, errors.As(err, &paramErr))
				assert.Equal(t, tt.wantParam, paramErr.Parameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRecordsResponse(t *testing.T) {
	req := RecordsRequest{
		Buoy:  46022,
		Start: time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC),
		Stop:  time.Date(2009, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	ts := time.Date(2009, 1, 1, 3, 0, 0, 0, time.UTC)
	result := &buoy.Result{
		Buoy:         46022,
		RecordErrors: []buoy.RecordError{{Timestamp: ts, Err: errors.New("no density")}},
		SkippedLines: 2,
	}

	resp := NewRecordsResponse(req, result)
	assert.Equal(t, "records", resp.ResponseType)
	assert.Equal(t, "NDBC-46022", resp.BuoyName)
	assert.Equal(t, "2009-01-01T00:00:00", resp.Start)
	assert.NotNil(t, resp.Wind)
	assert.NotNil(t, resp.Wave)
	require.Len(t, resp.RecordErrors, 1)
	assert.Equal(t, "2009-01-01T03:00:00", resp.RecordErrors[0].Datetime)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"wind":[]`)
}
