package spectra

import (
	"time"

	"github.com/waveconnect/backend-go/internal/models"
)

// TimestampSet is the set of observation times in a series, keyed by Unix seconds
type TimestampSet map[int64]struct{}

func NewTimestampSet(records []models.WaveRecord) TimestampSet {
	set := make(TimestampSet, len(records))
	for _, r := range records {
		set[r.Timestamp.Unix()] = struct{}{}
	}
	return set
}

func (s TimestampSet) Contains(t time.Time) bool {
	_, ok := s[t.Unix()]
	return ok
}

// Join merges addition into base on shared timestamps.
//
// The k-th base record at a time is paired with the k-th addition record at
// that time. Output holds the merged records in base order, then the base
// records without a partner, then the addition records without a partner.
// Neither input slice is modified.
func Join(base []models.WaveRecord, baseTS TimestampSet, addition []models.WaveRecord, addTS TimestampSet) ([]models.WaveRecord, error) {
	if len(addition) == 0 {
		out := make([]models.WaveRecord, len(base))
		copy(out, base)
		return out, nil
	}

	// queue the joinable addition records per timestamp, in input order
	pending := make(map[int64][]int)
	for i, a := range addition {
		if baseTS.Contains(a.Timestamp) {
			key := a.Timestamp.Unix()
			pending[key] = append(pending[key], i)
		}
	}

	joined := make([]models.WaveRecord, 0, len(base))
	usedBase := make([]bool, len(base))
	usedAddition := make([]bool, len(addition))

	for i, b := range base {
		if !addTS.Contains(b.Timestamp) {
			continue
		}
		key := b.Timestamp.Unix()
		queue := pending[key]
		if len(queue) == 0 {
			continue
		}
		j := queue[0]
		pending[key] = queue[1:]

		merged, err := merge(b, addition[j])
		if err != nil {
			return nil, err
		}
		joined = append(joined, merged)
		usedBase[i] = true
		usedAddition[j] = true
	}

	out := joined
	for i, b := range base {
		if !usedBase[i] {
			out = append(out, b)
		}
	}
	for j, a := range addition {
		if !usedAddition[j] {
			out = append(out, a)
		}
	}
	return out, nil
}

// merge copies every field present on the addition onto a copy of the base
func merge(base, addition models.WaveRecord) (models.WaveRecord, error) {
	out := base.Clone()

	switch {
	case addition.FrequencyBins == nil:
	case out.FrequencyBins == nil:
		out.FrequencyBins = append([]float64(nil), addition.FrequencyBins...)
	case !sameBinSet(out.FrequencyBins, addition.FrequencyBins):
		return models.WaveRecord{}, NewBinMismatchError(base.Timestamp, base.FrequencyBins, addition.FrequencyBins)
	}

	for _, dt := range models.SpectralTypes() {
		values := addition.Component(dt)
		if values == nil {
			continue
		}
		if err := out.SetComponent(dt, append([]float64(nil), values...)); err != nil {
			return models.WaveRecord{}, err
		}
	}

	if addition.Height != nil {
		v := *addition.Height
		out.Height = &v
	}
	if addition.PeakDirection != nil {
		v := *addition.PeakDirection
		out.PeakDirection = &v
	}
	if addition.PeakPeriod != nil {
		v := *addition.PeakPeriod
		out.PeakPeriod = &v
	}
	out.HasMissingValues = out.HasMissingValues || addition.HasMissingValues

	return out, nil
}

// sameBinSet compares bins as sets of exact values
func sameBinSet(a, b []float64) bool {
	setA := make(map[float64]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[float64]struct{}, len(b))
	for _, v := range b {
		if _, ok := setA[v]; !ok {
			return false
		}
		setB[v] = struct{}{}
	}
	return len(setA) == len(setB)
}
