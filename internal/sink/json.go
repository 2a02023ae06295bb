package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
)

// JSONSink writes wind and wave records as two indented JSON arrays
type JSONSink struct {
	wind io.Writer
	wave io.Writer
}

func NewJSONSink(wind, wave io.Writer) *JSONSink {
	return &JSONSink{wind: wind, wave: wave}
}

func (s *JSONSink) Write(_ context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) error {
	if wind == nil {
		wind = []models.WindRecord{}
	}
	if wave == nil {
		wave = []models.ReconstructedWaveRecord{}
	}
	if err := writeJSON(s.wind, wind); err != nil {
		return fmt.Errorf("writing wind records: %w", err)
	}
	if err := writeJSON(s.wave, wave); err != nil {
		return fmt.Errorf("writing wave records: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// JSONFileSink is a JSONSink that creates its two output files on each Write
type JSONFileSink struct {
	windPath string
	wavePath string
}

func NewJSONFileSink(windPath, wavePath string) *JSONFileSink {
	return &JSONFileSink{windPath: windPath, wavePath: wavePath}
}

func (s *JSONFileSink) Write(ctx context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) error {
	windFile, err := os.Create(s.windPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.windPath, err)
	}
	defer windFile.Close()

	waveFile, err := os.Create(s.wavePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.wavePath, err)
	}
	defer waveFile.Close()

	if err := NewJSONSink(windFile, waveFile).Write(ctx, wind, wave); err != nil {
		return err
	}

	log.Info().
		Str("windFile", s.windPath).
		Str("waveFile", s.wavePath).
		Int("wind", len(wind)).
		Int("wave", len(wave)).
		Msg("Wrote JSON output")

	if err := windFile.Close(); err != nil {
		return err
	}
	return waveFile.Close()
}
