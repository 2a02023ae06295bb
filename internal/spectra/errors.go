package spectra

import (
	"fmt"
	"time"

	"github.com/waveconnect/backend-go/internal/models"
)

// BinMismatchError is returned when two series disagree on the frequency bins
// for the same timestamp.
type BinMismatchError struct {
	Timestamp time.Time
	Base      []float64
	Addition  []float64
}

func (e *BinMismatchError) Error() string {
	return fmt.Sprintf("bin mismatch at %s: %v != %v",
		e.Timestamp.Format(models.ISOLayout), e.Base, e.Addition)
}

func NewBinMismatchError(ts time.Time, base, addition []float64) *BinMismatchError {
	return &BinMismatchError{
		Timestamp: ts,
		Base:      base,
		Addition:  addition,
	}
}

// InvalidDirectionBinsError is returned for a direction resolution outside
// [0, MaxDirectionBins]
type InvalidDirectionBinsError struct {
	NumDirectionBins int
}

func (e *InvalidDirectionBinsError) Error() string {
	return fmt.Sprintf("number of direction bins must be between 0 and %d, got %d",
		MaxDirectionBins, e.NumDirectionBins)
}

func NewInvalidDirectionBinsError(n int) *InvalidDirectionBinsError {
	return &InvalidDirectionBinsError{NumDirectionBins: n}
}

// MissingFrequencySpectrumError means a record has directional components but no density
type MissingFrequencySpectrumError struct {
	Timestamp time.Time
}

func (e *MissingFrequencySpectrumError) Error() string {
	return fmt.Sprintf("directional data without a density spectrum at %s",
		e.Timestamp.Format(models.ISOLayout))
}

func NewMissingFrequencySpectrumError(ts time.Time) *MissingFrequencySpectrumError {
	return &MissingFrequencySpectrumError{Timestamp: ts}
}
