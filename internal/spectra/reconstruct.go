package spectra

import (
	"fmt"
	"math"

	"github.com/waveconnect/backend-go/internal/models"
)

// MaxDirectionBins caps the angular resolution of a 2D spectrum at one bin per degree
const MaxDirectionBins = 360

// ValidateDirectionBins checks n against [0, MaxDirectionBins]
func ValidateDirectionBins(n int) error {
	if n < 0 || n > MaxDirectionBins {
		return NewInvalidDirectionBinsError(n)
	}
	return nil
}

// Reconstruct converts the spectral components of a joined record into its
// output spectrum.
//
// With all five components and numDirectionBins > 0 the 2D spectrum is
// estimated on numDirectionBins equally spaced directions as
//
//	S(f, A) = d(f)/π * (0.5 + r1(f)cos(A-α1(f)) + r2(f)cos(2(A-α2(f))))
//
// where r1 and r2 are the NDBC values divided by 100. numDirectionBins == 0
// returns the five components stacked instead. Density alone gives a 1D
// spectrum; directional data without density is an error.
func Reconstruct(rec models.WaveRecord, numDirectionBins int) (models.ReconstructedWaveRecord, error) {
	if err := ValidateDirectionBins(numDirectionBins); err != nil {
		return models.ReconstructedWaveRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return models.ReconstructedWaveRecord{}, fmt.Errorf("reconstructing record: %w", err)
	}

	out := models.ReconstructedWaveRecord{
		BuoyNumber:       rec.BuoyNumber,
		Timestamp:        rec.Timestamp,
		Height:           copyFloat(rec.Height),
		PeakDirection:    copyFloat(rec.PeakDirection),
		PeakPeriod:       copyFloat(rec.PeakPeriod),
		FrequencyBins:    copyFloats(rec.FrequencyBins),
		HasMissingValues: rec.HasMissingValues,
		Kind:             models.SpectrumNone,
	}

	complete := true
	directional := false
	for _, dt := range models.SpectralTypes() {
		present := rec.Component(dt) != nil
		complete = complete && present
		if dt != models.SpecDensity && present {
			directional = true
		}
	}

	switch {
	case complete && numDirectionBins == 0:
		out.Kind = models.SpectrumAggregated2D
		out.Spectrum2D = [][]float64{
			copyFloats(rec.Density),
			copyFloats(rec.Alpha1),
			copyFloats(rec.Alpha2),
			copyFloats(rec.R1),
			copyFloats(rec.R2),
		}
	case complete:
		out.Kind = models.SpectrumFull2D
		out.DirectionBins = DirectionBins(numDirectionBins)
		out.Spectrum2D = directionalSpectrum(rec, out.DirectionBins)
	case rec.Density != nil:
		out.Kind = models.SpectrumOneD
		out.Spectrum1D = copyFloats(rec.Density)
	case directional:
		return models.ReconstructedWaveRecord{}, NewMissingFrequencySpectrumError(rec.Timestamp)
	}

	return out, nil
}

// DirectionBins returns n equally spaced directions over [0, 360)
func DirectionBins(n int) []float64 {
	bins := make([]float64, n)
	for i := range bins {
		bins[i] = float64(i) * 360 / float64(n)
	}
	return bins
}

func directionalSpectrum(rec models.WaveRecord, directions []float64) [][]float64 {
	spectrum := make([][]float64, len(rec.FrequencyBins))
	for f := range rec.FrequencyBins {
		r1 := rec.R1[f] / 100
		r2 := rec.R2[f] / 100
		row := make([]float64, len(directions))
		for j, a := range directions {
			row[j] = rec.Density[f] / math.Pi * (0.5 +
				r1*math.Cos(radians(a-rec.Alpha1[f])) +
				r2*math.Cos(radians(2*(a-rec.Alpha2[f]))))
		}
		spectrum[f] = row
	}
	return spectrum
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func copyFloats(values []float64) []float64 {
	if values == nil {
		return nil
	}
	return append([]float64(nil), values...)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
