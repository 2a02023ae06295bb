package ndbc

import (
	"fmt"
	"time"

	"github.com/waveconnect/backend-go/internal/models"
)

// PlanChunks returns the archive chunks needed to cover [start, stop].
//
// NDBC keeps whole years under the historical archive and the current year
// month by month, so years before now.Year() become Year chunks and months of
// the current year become Month chunks.
//
// A stop later than now is clamped to now before planning, so the result
// covers [start, min(stop, now)] rather than every month up to stop. NDBC has
// no files for months that have not happened, and a window lying wholly in the
// future plans no chunks at all.
func PlanChunks(start, stop, now time.Time) ([]models.TimeChunk, error) {
	if start.After(stop) {
		return nil, NewInvalidRangeError(fmt.Sprintf("start time %s is after stop time %s",
			start.Format(models.ISOLayout), stop.Format(models.ISOLayout)))
	}

	if stop.After(now) {
		stop = now
	}
	if start.After(stop) {
		// window lies entirely in the future
		return []models.TimeChunk{}, nil
	}

	currentYear := now.Year()
	chunks := make([]models.TimeChunk, 0)

	switch {
	case start.Year() < currentYear && stop.Year() < currentYear:
		for year := start.Year(); year <= stop.Year(); year++ {
			chunks = append(chunks, models.YearChunk(year))
		}
	case start.Year() < currentYear && stop.Year() == currentYear:
		for year := start.Year(); year < currentYear; year++ {
			chunks = append(chunks, models.YearChunk(year))
		}
		for month := 1; month <= int(stop.Month()); month++ {
			chunks = append(chunks, models.MonthChunk(month, currentYear))
		}
	default:
		for month := int(start.Month()); month <= int(stop.Month()); month++ {
			chunks = append(chunks, models.MonthChunk(month, currentYear))
		}
	}

	return chunks, nil
}

// InWindow reports whether t falls inside [start, stop], inclusive at both ends
func InWindow(t, start, stop time.Time) bool {
	return !t.Before(start) && !t.After(stop)
}

// FilterWind keeps the wind records inside the window
func FilterWind(records []models.WindRecord, start, stop time.Time) []models.WindRecord {
	out := make([]models.WindRecord, 0, len(records))
	for _, r := range records {
		if InWindow(r.Timestamp, start, stop) {
			out = append(out, r)
		}
	}
	return out
}

// FilterWave keeps the wave records inside the window
func FilterWave(records []models.WaveRecord, start, stop time.Time) []models.WaveRecord {
	out := make([]models.WaveRecord, 0, len(records))
	for _, r := range records {
		if InWindow(r.Timestamp, start, stop) {
			out = append(out, r)
		}
	}
	return out
}
