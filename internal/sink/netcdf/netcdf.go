// Package netcdf writes pipeline output as NetCDF-4 files. It links the C
// netCDF library, so it registers itself with the sink package on import
// instead of being built into every binary.
package netcdf

import (
	"context"
	"fmt"
	"math"
	"slices"

	nc "github.com/fhs/go-netcdf/netcdf"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/internal/sink"
)

const timeUnits = "seconds since 1970-01-01 00:00:00"

func init() {
	sink.RegisterFileSink(sink.FormatNetCDF, func(windPath, wavePath string) sink.Sink {
		return NewFileSink(windPath, wavePath)
	})
}

// FileSink writes wind and wave records to two NetCDF-4 files
type FileSink struct {
	windPath string
	wavePath string
}

var _ sink.Sink = (*FileSink)(nil)

func NewFileSink(windPath, wavePath string) *FileSink {
	return &FileSink{windPath: windPath, wavePath: wavePath}
}

func (s *FileSink) Write(_ context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) error {
	if err := writeWindNetCDF(s.windPath, wind); err != nil {
		return fmt.Errorf("writing wind netcdf: %w", err)
	}
	if err := writeWaveNetCDF(s.wavePath, wave); err != nil {
		return fmt.Errorf("writing wave netcdf: %w", err)
	}

	log.Info().
		Str("windFile", s.windPath).
		Str("waveFile", s.wavePath).
		Int("wind", len(wind)).
		Int("wave", len(wave)).
		Msg("Wrote NetCDF output")
	return nil
}

type ncVar struct {
	name  string
	units string
	dims  []nc.Dim
	data  []float64
}

func writeWindNetCDF(path string, records []models.WindRecord) error {
	ds, err := nc.CreateFile(path, nc.CLOBBER|nc.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	if len(records) == 0 {
		return ds.EndDef()
	}
	if err := ds.Attr("buoy").WriteBytes([]byte(buoyName(records[0].BuoyNumber))); err != nil {
		return err
	}

	timeDim, err := ds.AddDim("time", uint64(len(records)))
	if err != nil {
		return err
	}

	times := make([]float64, len(records))
	direction := make([]float64, len(records))
	speed := make([]float64, len(records))
	for i, r := range records {
		times[i] = float64(r.Timestamp.Unix())
		direction[i] = r.Direction
		speed[i] = r.Speed
	}

	return writeVars(ds, []ncVar{
		{name: "time", units: timeUnits, dims: []nc.Dim{timeDim}, data: times},
		{name: "wind_direction", units: "degrees", dims: []nc.Dim{timeDim}, data: direction},
		{name: "wind_speed", units: "m/s", dims: []nc.Dim{timeDim}, data: speed},
	})
}

// writeWaveNetCDF lays the records out on (time, frequency, direction). Every
// record with a spectrum must share the same frequency bins, and the same
// direction bins when it has a 2D spectrum.
func writeWaveNetCDF(path string, records []models.ReconstructedWaveRecord) error {
	freqs, dirs, err := commonBins(records)
	if err != nil {
		return err
	}

	ds, err := nc.CreateFile(path, nc.CLOBBER|nc.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	if len(records) == 0 {
		return ds.EndDef()
	}
	if err := ds.Attr("buoy").WriteBytes([]byte(buoyName(records[0].BuoyNumber))); err != nil {
		return err
	}

	nt, nf, nd := len(records), len(freqs), len(dirs)
	timeDim, err := ds.AddDim("time", uint64(nt))
	if err != nil {
		return err
	}

	times := make([]float64, nt)
	height := make([]float64, nt)
	peakDir := make([]float64, nt)
	peakPeriod := make([]float64, nt)
	for i, r := range records {
		times[i] = float64(r.Timestamp.Unix())
		height[i] = valueOrNaN(r.Height)
		peakDir[i] = valueOrNaN(r.PeakDirection)
		peakPeriod[i] = valueOrNaN(r.PeakPeriod)
	}

	vars := []ncVar{
		{name: "time", units: timeUnits, dims: []nc.Dim{timeDim}, data: times},
		{name: "wave_height", units: "m", dims: []nc.Dim{timeDim}, data: height},
		{name: "peak_direction", units: "degrees", dims: []nc.Dim{timeDim}, data: peakDir},
		{name: "peak_period", units: "s", dims: []nc.Dim{timeDim}, data: peakPeriod},
	}

	// a zero length dimension would be unlimited, so empty axes are left out
	if nf > 0 {
		freqDim, err := ds.AddDim("frequency", uint64(nf))
		if err != nil {
			return err
		}
		vars = append(vars,
			ncVar{name: "frequency", units: "Hz", dims: []nc.Dim{freqDim}, data: freqs},
			ncVar{name: "density", units: "m^2/Hz", dims: []nc.Dim{timeDim, freqDim}, data: densityGrid(records, nf)},
		)

		if nd > 0 {
			dirDim, err := ds.AddDim("direction", uint64(nd))
			if err != nil {
				return err
			}
			vars = append(vars,
				ncVar{name: "direction", units: "degrees", dims: []nc.Dim{dirDim}, data: dirs},
				ncVar{name: "spectra", units: "m^2/Hz/rad", dims: []nc.Dim{timeDim, freqDim, dirDim}, data: spectraGrid(records, nf, nd)},
			)
		}
	}

	return writeVars(ds, vars)
}

func writeVars(ds nc.Dataset, vars []ncVar) error {
	handles := make([]nc.Var, len(vars))
	for i, v := range vars {
		h, err := ds.AddVar(v.name, nc.DOUBLE, v.dims)
		if err != nil {
			return fmt.Errorf("adding variable %s: %w", v.name, err)
		}
		if err := h.Attr("units").WriteBytes([]byte(v.units)); err != nil {
			return err
		}
		if err := h.Attr("_FillValue").WriteFloat64s([]float64{math.NaN()}); err != nil {
			return err
		}
		handles[i] = h
	}

	if err := ds.EndDef(); err != nil {
		return err
	}

	for i, v := range vars {
		if err := handles[i].WriteFloat64s(v.data); err != nil {
			return fmt.Errorf("writing variable %s: %w", v.name, err)
		}
	}
	return nil
}

func commonBins(records []models.ReconstructedWaveRecord) (freqs, dirs []float64, err error) {
	for _, r := range records {
		if r.Kind == models.SpectrumNone {
			continue
		}
		if freqs == nil {
			freqs = r.FrequencyBins
		} else if !slices.Equal(freqs, r.FrequencyBins) {
			return nil, nil, fmt.Errorf("record at %s has different frequency bins", r.Timestamp.Format(models.ISOLayout))
		}
		if r.Kind != models.SpectrumFull2D {
			continue
		}
		if dirs == nil {
			dirs = r.DirectionBins
		} else if !slices.Equal(dirs, r.DirectionBins) {
			return nil, nil, fmt.Errorf("record at %s has different direction bins", r.Timestamp.Format(models.ISOLayout))
		}
	}
	return freqs, dirs, nil
}

// densityGrid is (time, frequency). Full 2D spectra are integrated over direction.
func densityGrid(records []models.ReconstructedWaveRecord, nf int) []float64 {
	grid := nanSlice(len(records) * nf)
	for t, r := range records {
		row := grid[t*nf : (t+1)*nf]
		switch r.Kind {
		case models.SpectrumOneD:
			copy(row, r.Spectrum1D)
		case models.SpectrumAggregated2D:
			copy(row, r.Spectrum2D[0])
		case models.SpectrumFull2D:
			step := 2 * math.Pi / float64(len(r.DirectionBins))
			for f, dirRow := range r.Spectrum2D {
				sum := 0.0
				for _, v := range dirRow {
					sum += v
				}
				row[f] = sum * step
			}
		case models.SpectrumNone:
		}
	}
	return grid
}

// spectraGrid is (time, frequency, direction), NaN for records without a full 2D spectrum
func spectraGrid(records []models.ReconstructedWaveRecord, nf, nd int) []float64 {
	grid := nanSlice(len(records) * nf * nd)
	for t, r := range records {
		if r.Kind != models.SpectrumFull2D {
			continue
		}
		for f, dirRow := range r.Spectrum2D {
			copy(grid[(t*nf+f)*nd:(t*nf+f+1)*nd], dirRow)
		}
	}
	return grid
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func valueOrNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

func buoyName(number int) string {
	b, _ := models.BuoyOrDefault(number)
	return b.Name()
}
