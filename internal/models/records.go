package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ISOLayout is the datetime format used in every serialized record
const ISOLayout = "2006-01-02T15:04:05"

// WindRecord is a single wind observation from the meteorological series
type WindRecord struct {
	BuoyNumber int
	Timestamp  time.Time
	Direction  float64
	Speed      float64
}

// WaveRecord carries the bulk wave parameters and whichever spectral
// components were available for its timestamp. A nil component is absent.
type WaveRecord struct {
	BuoyNumber    int
	Timestamp     time.Time
	Height        *float64
	PeakDirection *float64
	PeakPeriod    *float64

	// FrequencyBins is shared by every spectral component on the record
	FrequencyBins []float64
	Density       []float64
	Alpha1        []float64
	Alpha2        []float64
	R1            []float64
	R2            []float64

	// HasMissingValues is set when a raw value could not be parsed and was
	// stored as NaN.
	HasMissingValues bool
}

// Component returns the spectral vector for a series, nil when absent
func (w *WaveRecord) Component(dt DataType) []float64 {
	switch dt {
	case SpecDensity:
		return w.Density
	case DirectionAlpha1:
		return w.Alpha1
	case DirectionAlpha2:
		return w.Alpha2
	case DirectionR1:
		return w.R1
	case DirectionR2:
		return w.R2
	case Meteorological:
		return nil
	}
	return nil
}

// SetComponent stores values as the spectral vector for a series
func (w *WaveRecord) SetComponent(dt DataType, values []float64) error {
	switch dt {
	case SpecDensity:
		w.Density = values
	case DirectionAlpha1:
		w.Alpha1 = values
	case DirectionAlpha2:
		w.Alpha2 = values
	case DirectionR1:
		w.R1 = values
	case DirectionR2:
		w.R2 = values
	case Meteorological:
		return fmt.Errorf("meteorological series has no spectral component")
	default:
		return fmt.Errorf("unknown data type: %s", dt)
	}
	return nil
}

// HasSpectra reports whether any spectral component is present
func (w *WaveRecord) HasSpectra() bool {
	for _, dt := range SpectralTypes() {
		if w.Component(dt) != nil {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so joined records never share slices with their inputs
func (w WaveRecord) Clone() WaveRecord {
	out := w
	out.Height = cloneFloatPtr(w.Height)
	out.PeakDirection = cloneFloatPtr(w.PeakDirection)
	out.PeakPeriod = cloneFloatPtr(w.PeakPeriod)
	out.FrequencyBins = cloneFloats(w.FrequencyBins)
	out.Density = cloneFloats(w.Density)
	out.Alpha1 = cloneFloats(w.Alpha1)
	out.Alpha2 = cloneFloats(w.Alpha2)
	out.R1 = cloneFloats(w.R1)
	out.R2 = cloneFloats(w.R2)
	return out
}

// SpectrumKind describes what shape of spectrum a reconstructed record carries
type SpectrumKind int

const (
	SpectrumNone SpectrumKind = iota
	SpectrumOneD
	SpectrumAggregated2D
	SpectrumFull2D
)

func (k SpectrumKind) String() string {
	switch k {
	case SpectrumOneD:
		return "1D"
	case SpectrumAggregated2D:
		return "aggregated2D"
	case SpectrumFull2D:
		return "2D"
	case SpectrumNone:
		return ""
	}
	return fmt.Sprintf("SpectrumKind(%d)", int(k))
}

// ReconstructedWaveRecord is the final wave record handed to output sinks
type ReconstructedWaveRecord struct {
	BuoyNumber    int
	Timestamp     time.Time
	Height        *float64
	PeakDirection *float64
	PeakPeriod    *float64
	FrequencyBins []float64
	DirectionBins []float64

	// Spectrum1D is set for SpectrumOneD records
	Spectrum1D []float64
	// Spectrum2D is [frequency][direction] for SpectrumFull2D records and the
	// stacked density, alpha1, alpha2, r1, r2 rows for SpectrumAggregated2D.
	Spectrum2D [][]float64
	Kind       SpectrumKind

	HasMissingValues bool
}

// Validate checks a wind record before it is persisted
func (r *WindRecord) Validate() error {
	if r.BuoyNumber <= 0 {
		return fmt.Errorf("invalid buoy number: %d", r.BuoyNumber)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Validate checks that every present component matches the frequency bins
func (w *WaveRecord) Validate() error {
	if w.BuoyNumber <= 0 {
		return fmt.Errorf("invalid buoy number: %d", w.BuoyNumber)
	}
	if w.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	for _, dt := range SpectralTypes() {
		values := w.Component(dt)
		if values == nil {
			continue
		}
		if len(values) != len(w.FrequencyBins) {
			return fmt.Errorf("%s has %d values for %d frequency bins", dt, len(values), len(w.FrequencyBins))
		}
	}
	return nil
}

// Validate checks the spectrum shape against the bins
func (r *ReconstructedWaveRecord) Validate() error {
	if r.BuoyNumber <= 0 {
		return fmt.Errorf("invalid buoy number: %d", r.BuoyNumber)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	switch r.Kind {
	case SpectrumOneD:
		if len(r.Spectrum1D) != len(r.FrequencyBins) {
			return fmt.Errorf("1D spectrum has %d values for %d frequency bins", len(r.Spectrum1D), len(r.FrequencyBins))
		}
	case SpectrumFull2D:
		if len(r.Spectrum2D) != len(r.FrequencyBins) {
			return fmt.Errorf("2D spectrum has %d rows for %d frequency bins", len(r.Spectrum2D), len(r.FrequencyBins))
		}
		for i, row := range r.Spectrum2D {
			if len(row) != len(r.DirectionBins) {
				return fmt.Errorf("2D spectrum row %d has %d values for %d direction bins", i, len(row), len(r.DirectionBins))
			}
		}
	case SpectrumAggregated2D:
		if len(r.Spectrum2D) != len(SpectralTypes()) {
			return fmt.Errorf("aggregated spectrum has %d rows, want %d", len(r.Spectrum2D), len(SpectralTypes()))
		}
	case SpectrumNone:
	}
	return nil
}

type windRecordJSON struct {
	BuoyNumber   int      `json:"buoyNumber"`
	DateTime     string   `json:"datetime"`
	WinDirection *float64 `json:"winDirection"`
	WinSpeed     *float64 `json:"winSpeed"`
}

func (r WindRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(windRecordJSON{
		BuoyNumber:   r.BuoyNumber,
		DateTime:     r.Timestamp.Format(ISOLayout),
		WinDirection: finite(r.Direction),
		WinSpeed:     finite(r.Speed),
	})
}

type waveRecordJSON struct {
	BuoyNumber          int        `json:"buoyNumber"`
	DateTime            string     `json:"datetime"`
	WavHeight           *float64   `json:"wavHeight,omitempty"`
	WavPeakDir          *float64   `json:"wavPeakDir,omitempty"`
	WavPeakPeriod       *float64   `json:"wavPeakPeriod,omitempty"`
	Density             []*float64 `json:"density,omitempty"`
	DensityBins         []*float64 `json:"densityBins,omitempty"`
	DirectionAlpha1     []*float64 `json:"directionAlpha1,omitempty"`
	DirectionAlpha1Bins []*float64 `json:"directionAlpha1Bins,omitempty"`
	DirectionAlpha2     []*float64 `json:"directionAlpha2,omitempty"`
	DirectionAlpha2Bins []*float64 `json:"directionAlpha2Bins,omitempty"`
	DirectionR1         []*float64 `json:"directionR1,omitempty"`
	DirectionR1Bins     []*float64 `json:"directionR1Bins,omitempty"`
	DirectionR2         []*float64 `json:"directionR2,omitempty"`
	DirectionR2Bins     []*float64 `json:"directionR2Bins,omitempty"`
}

func (w WaveRecord) MarshalJSON() ([]byte, error) {
	out := waveRecordJSON{
		BuoyNumber:    w.BuoyNumber,
		DateTime:      w.Timestamp.Format(ISOLayout),
		WavHeight:     finitePtr(w.Height),
		WavPeakDir:    finitePtr(w.PeakDirection),
		WavPeakPeriod: finitePtr(w.PeakPeriod),
	}
	bins := nullable(w.FrequencyBins)
	if w.Density != nil {
		out.Density, out.DensityBins = nullable(w.Density), bins
	}
	if w.Alpha1 != nil {
		out.DirectionAlpha1, out.DirectionAlpha1Bins = nullable(w.Alpha1), bins
	}
	if w.Alpha2 != nil {
		out.DirectionAlpha2, out.DirectionAlpha2Bins = nullable(w.Alpha2), bins
	}
	if w.R1 != nil {
		out.DirectionR1, out.DirectionR1Bins = nullable(w.R1), bins
	}
	if w.R2 != nil {
		out.DirectionR2, out.DirectionR2Bins = nullable(w.R2), bins
	}
	return json.Marshal(out)
}

type reconstructedJSON struct {
	BuoyNumber    int         `json:"buoyNumber"`
	DateTime      string      `json:"datetime"`
	WavHeight     *float64    `json:"wavHeight,omitempty"`
	WavPeakDir    *float64    `json:"wavPeakDir,omitempty"`
	WavPeakPeriod *float64    `json:"wavPeakPeriod,omitempty"`
	FrequencyBins []*float64  `json:"frequencyBins,omitempty"`
	DirectionBins []*float64  `json:"directionBins,omitempty"`
	Spectra       interface{} `json:"spectra,omitempty"`
	SpectraType   string      `json:"spectraType,omitempty"`
}

func (r ReconstructedWaveRecord) MarshalJSON() ([]byte, error) {
	out := reconstructedJSON{
		BuoyNumber:    r.BuoyNumber,
		DateTime:      r.Timestamp.Format(ISOLayout),
		WavHeight:     finitePtr(r.Height),
		WavPeakDir:    finitePtr(r.PeakDirection),
		WavPeakPeriod: finitePtr(r.PeakPeriod),
		FrequencyBins: nullable(r.FrequencyBins),
		DirectionBins: nullable(r.DirectionBins),
		SpectraType:   r.Kind.String(),
	}
	switch r.Kind {
	case SpectrumOneD:
		out.Spectra = nullable(r.Spectrum1D)
	case SpectrumFull2D, SpectrumAggregated2D:
		matrix := make([][]*float64, len(r.Spectrum2D))
		for i, row := range r.Spectrum2D {
			matrix[i] = nullable(row)
		}
		out.Spectra = matrix
	case SpectrumNone:
	}
	return json.Marshal(out)
}

// JSON has no NaN, so missing values are written as null
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func finitePtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return finite(*f)
}

func nullable(values []float64) []*float64 {
	if values == nil {
		return nil
	}
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finite(v)
	}
	return out
}

func cloneFloats(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

func cloneFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
