// Package sink writes pipeline output to files, databases and DynamoDB.
package sink

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/waveconnect/backend-go/internal/models"
)

// Sink persists the wind and reconstructed wave records of one pipeline run
type Sink interface {
	Write(ctx context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) error
}

const (
	FormatJSON     = "json"
	FormatParquet  = "parquet"
	FormatNetCDF   = "netcdf"
	FormatDatabase = "database"
	FormatDynamo   = "dynamo"
)

// Options carries what the different sinks need; each sink reads only its own fields
type Options struct {
	WindPath string
	WavePath string

	Store  *SQLStore
	Dynamo DynamoDBClient
	Table  string

	BatchSize       int
	MaxBatchRetries int
}

// FileSinkFunc builds a sink that writes wind and wave records to two files
type FileSinkFunc func(windPath, wavePath string) Sink

var (
	fileSinksMu sync.RWMutex
	fileSinks   = make(map[string]FileSinkFunc)
)

// RegisterFileSink makes a file format available to New. Formats whose writer
// needs a C library, such as NetCDF, live in their own package and call this
// from init, so only binaries importing that package link the library.
func RegisterFileSink(format string, fn FileSinkFunc) {
	fileSinksMu.Lock()
	defer fileSinksMu.Unlock()
	fileSinks[strings.ToLower(format)] = fn
}

func registeredFileSink(format string) (FileSinkFunc, bool) {
	fileSinksMu.RLock()
	defer fileSinksMu.RUnlock()
	fn, ok := fileSinks[format]
	return fn, ok
}

// New returns the sink for format
func New(format string, opts Options) (Sink, error) {
	format = strings.ToLower(format)
	switch format {
	case FormatJSON:
		return NewJSONFileSink(opts.WindPath, opts.WavePath), nil
	case FormatParquet:
		return NewParquetSink(opts.WindPath, opts.WavePath), nil
	case FormatDatabase:
		if opts.Store == nil {
			return nil, fmt.Errorf("database sink requires an open store")
		}
		return opts.Store, nil
	case FormatDynamo:
		if opts.Dynamo == nil || opts.Table == "" {
			return nil, fmt.Errorf("dynamo sink requires a client and table name")
		}
		return NewDynamoSink(opts.Dynamo, opts.Table, opts.BatchSize, opts.MaxBatchRetries), nil
	}
	if fn, ok := registeredFileSink(format); ok {
		return fn(opts.WindPath, opts.WavePath), nil
	}
	if format == FormatNetCDF {
		return nil, fmt.Errorf("output format %s is not built into this binary", format)
	}
	return nil, fmt.Errorf("unknown output format: %s", format)
}

// Formats lists the names New accepts
func Formats() []string {
	formats := []string{FormatJSON, FormatParquet, FormatDatabase, FormatDynamo}

	fileSinksMu.RLock()
	registered := make([]string, 0, len(fileSinks))
	for name := range fileSinks {
		registered = append(registered, name)
	}
	fileSinksMu.RUnlock()

	sort.Strings(registered)
	return append(formats, registered...)
}

func buoyName(number int) string {
	b, _ := models.BuoyOrDefault(number)
	return b.Name()
}

func finiteOrNil(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func finitePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return finiteOrNil(*f)
}

// flatten returns the spectrum of r as one row-major slice with its shape
func flatten(r models.ReconstructedWaveRecord) (values []float64, rows, cols int) {
	switch r.Kind {
	case models.SpectrumOneD:
		return append([]float64(nil), r.Spectrum1D...), 1, len(r.Spectrum1D)
	case models.SpectrumFull2D, models.SpectrumAggregated2D:
		if len(r.Spectrum2D) == 0 {
			return nil, 0, 0
		}
		cols = len(r.Spectrum2D[0])
		values = make([]float64, 0, len(r.Spectrum2D)*cols)
		for _, row := range r.Spectrum2D {
			values = append(values, row...)
		}
		return values, len(r.Spectrum2D), cols
	case models.SpectrumNone:
	}
	return nil, 0, 0
}
