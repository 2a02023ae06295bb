package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSink(t *testing.T) {
	var wind, wave bytes.Buffer
	s := NewJSONSink(&wind, &wave)

	require.NoError(t, s.Write(context.Background(), testWind(), testWave()))

	var windOut []map[string]any
	require.NoError(t, json.Unmarshal(wind.Bytes(), &windOut))
	require.Len(t, windOut, 2)
	assert.Equal(t, "2009-01-01T01:00:00", windOut[0]["datetime"])
	assert.Equal(t, 320.0, windOut[0]["winDirection"])
	assert.Nil(t, windOut[1]["winSpeed"])

	var waveOut []map[string]any
	require.NoError(t, json.Unmarshal(wave.Bytes(), &waveOut))
	require.Len(t, waveOut, 2)
	assert.Equal(t, "1D", waveOut[0]["spectraType"])
	assert.Equal(t, "2D", waveOut[1]["spectraType"])
	assert.Contains(t, waveOut[1], "directionBins")

	assert.Contains(t, wind.String(), "\n  {\n    \"buoyNumber\"", "two-space indentation")
}

func TestJSONSinkEmpty(t *testing.T) {
	var wind, wave bytes.Buffer
	require.NoError(t, NewJSONSink(&wind, &wave).Write(context.Background(), nil, nil))
	assert.Equal(t, "[]\n", wind.String())
	assert.Equal(t, "[]\n", wave.String())
}

func TestJSONFileSink(t *testing.T) {
	dir := t.TempDir()
	windPath := filepath.Join(dir, "wind.json")
	wavePath := filepath.Join(dir, "wave.json")

	require.NoError(t, NewJSONFileSink(windPath, wavePath).Write(context.Background(), testWind(), testWave()))

	data, err := os.ReadFile(wavePath)
	require.NoError(t, err)
	var waveOut []map[string]any
	require.NoError(t, json.Unmarshal(data, &waveOut))
	assert.Len(t, waveOut, 2)

	err = NewJSONFileSink(filepath.Join(dir, "missing", "wind.json"), wavePath).Write(context.Background(), nil, nil)
	assert.Error(t, err)
}
