package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
)

// WindRow is the Parquet schema for wind records
type WindRow struct {
	BuoyNumber int32    `parquet:"buoy_number"`
	Time       int64    `parquet:"time"`
	Datetime   string   `parquet:"datetime"`
	Direction  *float64 `parquet:"win_direction"`
	Speed      *float64 `parquet:"win_speed"`
}

// WaveRow is the Parquet schema for wave records. The spectrum is stored
// row-major in Spectra with its shape in SpectraRows and SpectraCols.
type WaveRow struct {
	BuoyNumber       int32     `parquet:"buoy_number"`
	Time             int64     `parquet:"time"`
	Datetime         string    `parquet:"datetime"`
	Height           *float64  `parquet:"wav_height"`
	PeakDirection    *float64  `parquet:"wav_peak_dir"`
	PeakPeriod       *float64  `parquet:"wav_peak_period"`
	SpectraType      string    `parquet:"spectra_type"`
	FrequencyBins    []float64 `parquet:"frequency_bins,list"`
	DirectionBins    []float64 `parquet:"direction_bins,list"`
	Spectra          []float64 `parquet:"spectra,list"`
	SpectraRows      int32     `parquet:"spectra_rows"`
	SpectraCols      int32     `parquet:"spectra_cols"`
	HasMissingValues bool      `parquet:"has_missing_values"`
}

func windRows(records []models.WindRecord) []WindRow {
	rows := make([]WindRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, WindRow{
			BuoyNumber: int32(r.BuoyNumber),
			Time:       r.Timestamp.Unix(),
			Datetime:   r.Timestamp.Format(models.ISOLayout),
			Direction:  finiteOrNil(r.Direction),
			Speed:      finiteOrNil(r.Speed),
		})
	}
	return rows
}

func waveRows(records []models.ReconstructedWaveRecord) []WaveRow {
	rows := make([]WaveRow, 0, len(records))
	for _, r := range records {
		values, nRows, nCols := flatten(r)
		rows = append(rows, WaveRow{
			BuoyNumber:       int32(r.BuoyNumber),
			Time:             r.Timestamp.Unix(),
			Datetime:         r.Timestamp.Format(models.ISOLayout),
			Height:           finitePtr(r.Height),
			PeakDirection:    finitePtr(r.PeakDirection),
			PeakPeriod:       finitePtr(r.PeakPeriod),
			SpectraType:      r.Kind.String(),
			FrequencyBins:    r.FrequencyBins,
			DirectionBins:    r.DirectionBins,
			Spectra:          values,
			SpectraRows:      int32(nRows),
			SpectraCols:      int32(nCols),
			HasMissingValues: r.HasMissingValues,
		})
	}
	return rows
}

// ParquetSink writes wind and wave records to two Parquet files
type ParquetSink struct {
	windPath string
	wavePath string
}

func NewParquetSink(windPath, wavePath string) *ParquetSink {
	return &ParquetSink{windPath: windPath, wavePath: wavePath}
}

func (s *ParquetSink) Write(_ context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) error {
	if err := writeParquet(s.windPath, windRows(wind)); err != nil {
		return fmt.Errorf("writing wind parquet: %w", err)
	}
	if err := writeParquet(s.wavePath, waveRows(wave)); err != nil {
		return fmt.Errorf("writing wave parquet: %w", err)
	}

	log.Info().
		Str("windFile", s.windPath).
		Str("waveFile", s.wavePath).
		Int("wind", len(wind)).
		Int("wave", len(wave)).
		Msg("Wrote Parquet output")
	return nil
}

// writeParquet writes rows to path through a .tmp file renamed into place
func writeParquet[T any](path string, rows []T) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := parquet.NewGenericWriter[T](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
