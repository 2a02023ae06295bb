package spectra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveconnect/backend-go/internal/models"
)

var t0 = time.Date(2009, 1, 1, 1, 0, 0, 0, time.UTC)

func hour(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Hour)
}

func ptr(f float64) *float64 {
	return &f
}

func metRecord(n int, height float64) models.WaveRecord {
	return models.WaveRecord{
		BuoyNumber:    46022,
		Timestamp:     hour(n),
		Height:        ptr(height),
		PeakDirection: ptr(11.0),
		PeakPeriod:    ptr(290),
	}
}

func componentRecord(n int, dt models.DataType, bins, values []float64) models.WaveRecord {
	rec := models.WaveRecord{
		BuoyNumber:    46022,
		Timestamp:     hour(n),
		FrequencyBins: bins,
	}
	_ = rec.SetComponent(dt, values)
	return rec
}

func timestamps(records []models.WaveRecord) []time.Time {
	out := make([]time.Time, len(records))
	for i, r := range records {
		out[i] = r.Timestamp
	}
	return out
}

func TestJoin(t *testing.T) {
	t.Parallel()

	bins := []float64{0.02, 0.03}

	base := []models.WaveRecord{metRecord(0, 1.5), metRecord(1, 1.6), metRecord(2, 1.7)}
	addition := []models.WaveRecord{
		componentRecord(1, models.SpecDensity, bins, []float64{1, 2}),
		componentRecord(3, models.SpecDensity, bins, []float64{3, 4}),
		componentRecord(0, models.SpecDensity, bins, []float64{5, 6}),
	}

	got, err := Join(base, NewTimestampSet(base), addition, NewTimestampSet(addition))
	require.NoError(t, err)

	// joined in base order, then unmatched base, then unmatched addition
	assert.Equal(t, []time.Time{hour(0), hour(1), hour(2), hour(3)}, timestamps(got))

	assert.Equal(t, 1.5, *got[0].Height)
	assert.Equal(t, []float64{5, 6}, got[0].Density)
	assert.Equal(t, bins, got[0].FrequencyBins)

	assert.Equal(t, 1.6, *got[1].Height)
	assert.Equal(t, []float64{1, 2}, got[1].Density)

	assert.Nil(t, got[2].Density)
	assert.Equal(t, 1.7, *got[2].Height)

	assert.Nil(t, got[3].Height)
	assert.Equal(t, []float64{3, 4}, got[3].Density)
}

func TestJoinDoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	bins := []float64{0.02}
	base := []models.WaveRecord{metRecord(0, 1.5)}
	addition := []models.WaveRecord{componentRecord(0, models.SpecDensity, bins, []float64{9})}

	got, err := Join(base, NewTimestampSet(base), addition, NewTimestampSet(addition))
	require.NoError(t, err)
	require.Len(t, got, 1)

	got[0].Density[0] = 42
	*got[0].Height = 99

	assert.Nil(t, base[0].Density)
	assert.Nil(t, base[0].FrequencyBins)
	assert.Equal(t, 1.5, *base[0].Height)
	assert.Equal(t, []float64{9}, addition[0].Density)
}

func TestJoinWithItselfIsNoOp(t *testing.T) {
	t.Parallel()

	bins := []float64{0.02, 0.0325, 0.0375}
	series := []models.WaveRecord{
		componentRecord(0, models.SpecDensity, bins, []float64{0, 1.25, 2.5}),
		componentRecord(1, models.SpecDensity, bins, []float64{0.1, 1.3, 3}),
	}
	ts := NewTimestampSet(series)

	got, err := Join(series, ts, series, ts)
	require.NoError(t, err)
	assert.Equal(t, series, got)
}

func TestJoinBinMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     []float64
		addition []float64
		wantErr  bool
	}{
		{name: "identical", base: []float64{0.02, 0.03}, addition: []float64{0.02, 0.03}},
		{name: "same set in another order", base: []float64{0.02, 0.03}, addition: []float64{0.03, 0.02}},
		{name: "one value differs", base: []float64{0.02, 0.03}, addition: []float64{0.02, 0.031}, wantErr: true},
		{name: "extra bin", base: []float64{0.02, 0.03}, addition: []float64{0.02, 0.03, 0.04}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base := []models.WaveRecord{componentRecord(0, models.SpecDensity, tt.base, make([]float64, len(tt.base)))}
			addition := []models.WaveRecord{componentRecord(0, models.DirectionAlpha1, tt.addition, make([]float64, len(tt.addition)))}

			_, err := Join(base, NewTimestampSet(base), addition, NewTimestampSet(addition))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var mismatch *BinMismatchError
			require.True(t, errors.As(err, &mismatch))
			assert.Equal(t, hour(0), mismatch.Timestamp)
			assert.Equal(t, tt.base, mismatch.Base)
			assert.Equal(t, tt.addition, mismatch.Addition)
		})
	}
}

func TestJoinEmptyAdditionIsNoOp(t *testing.T) {
	t.Parallel()

	base := []models.WaveRecord{metRecord(0, 1.5), metRecord(1, 1.6)}
	got, err := Join(base, NewTimestampSet(base), nil, TimestampSet{})
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestJoinDuplicateTimestamps(t *testing.T) {
	t.Parallel()

	bins := []float64{0.02}
	base := []models.WaveRecord{metRecord(0, 1.0), metRecord(0, 2.0)}
	addition := []models.WaveRecord{
		componentRecord(0, models.SpecDensity, bins, []float64{7}),
		componentRecord(0, models.SpecDensity, bins, []float64{8}),
		componentRecord(0, models.SpecDensity, bins, []float64{9}),
	}

	got, err := Join(base, NewTimestampSet(base), addition, NewTimestampSet(addition))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, *got[0].Height)
	assert.Equal(t, []float64{7}, got[0].Density)
	assert.Equal(t, 2.0, *got[1].Height)
	assert.Equal(t, []float64{8}, got[1].Density)
	assert.Nil(t, got[2].Height)
	assert.Equal(t, []float64{9}, got[2].Density)
}

func TestJoinAllComponents(t *testing.T) {
	t.Parallel()

	bins := []float64{0.02, 0.03}
	acc := []models.WaveRecord{metRecord(0, 1.5)}
	for _, dt := range models.SpectralTypes() {
		series := []models.WaveRecord{componentRecord(0, dt, bins, []float64{float64(dt), float64(dt)})}
		var err error
		acc, err = Join(acc, NewTimestampSet(acc), series, NewTimestampSet(series))
		require.NoError(t, err, dt.String())
	}

	require.Len(t, acc, 1)
	rec := acc[0]
	assert.Equal(t, 1.5, *rec.Height)
	assert.Equal(t, bins, rec.FrequencyBins)
	for _, dt := range models.SpectralTypes() {
		assert.Equal(t, []float64{float64(dt), float64(dt)}, rec.Component(dt), dt.String())
	}
}

func TestTimestampSet(t *testing.T) {
	t.Parallel()

	set := NewTimestampSet([]models.WaveRecord{metRecord(0, 1), metRecord(2, 1)})
	assert.True(t, set.Contains(hour(0)))
	assert.True(t, set.Contains(hour(2).In(time.FixedZone("PST", -8*3600))))
	assert.False(t, set.Contains(hour(1)))
	assert.Len(t, set, 2)
}
