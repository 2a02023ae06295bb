package buoy

import (
	"fmt"
	"time"

	"github.com/waveconnect/backend-go/internal/models"
)

// NoDataAvailableError means no meteorological records exist for the window
type NoDataAvailableError struct {
	Buoy  int
	Start time.Time
	Stop  time.Time
}

func (e *NoDataAvailableError) Error() string {
	return fmt.Sprintf("no data available for buoy %d between %s and %s",
		e.Buoy, e.Start.Format(models.ISOLayout), e.Stop.Format(models.ISOLayout))
}

func NewNoDataAvailableError(buoy int, start, stop time.Time) *NoDataAvailableError {
	return &NoDataAvailableError{
		Buoy:  buoy,
		Start: start,
		Stop:  stop,
	}
}

// RecordError reports a single wave record that could not be reconstructed
type RecordError struct {
	Timestamp time.Time
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record at %s: %v", e.Timestamp.Format(models.ISOLayout), e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
