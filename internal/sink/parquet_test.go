package sink

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetSink(t *testing.T) {
	dir := t.TempDir()
	windPath := filepath.Join(dir, "wind.parquet")
	wavePath := filepath.Join(dir, "wave.parquet")

	require.NoError(t, NewParquetSink(windPath, wavePath).Write(context.Background(), testWind(), testWave()))

	wind, err := parquet.ReadFile[WindRow](windPath)
	require.NoError(t, err)
	require.Len(t, wind, 2)
	assert.Equal(t, int32(46022), wind[0].BuoyNumber)
	assert.Equal(t, t0.Unix(), wind[0].Time)
	assert.Equal(t, "2009-01-01T01:00:00", wind[0].Datetime)
	require.NotNil(t, wind[0].Speed)
	assert.Equal(t, 7.0, *wind[0].Speed)
	assert.Nil(t, wind[1].Speed)

	wave, err := parquet.ReadFile[WaveRow](wavePath)
	require.NoError(t, err)
	require.Len(t, wave, 2)
	assert.Equal(t, "1D", wave[0].SpectraType)
	assert.Equal(t, []float64{0.5, 1.25}, wave[0].Spectra)
	assert.Equal(t, int32(1), wave[0].SpectraRows)

	assert.Equal(t, "2D", wave[1].SpectraType)
	assert.Equal(t, int32(2), wave[1].SpectraRows)
	assert.Equal(t, int32(4), wave[1].SpectraCols)
	assert.Len(t, wave[1].Spectra, 8)
	assert.Equal(t, []float64{0, 90, 180, 270}, wave[1].DirectionBins)
	assert.True(t, wave[1].HasMissingValues)
	assert.Nil(t, wave[1].PeakDirection)
}

func TestParquetSinkBadPath(t *testing.T) {
	dir := t.TempDir()
	s := NewParquetSink(filepath.Join(dir, "nope", "wind.parquet"), filepath.Join(dir, "wave.parquet"))
	err := s.Write(context.Background(), testWind(), testWave())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wind parquet")
}
