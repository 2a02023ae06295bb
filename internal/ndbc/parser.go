package ndbc

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
)

// minuteColumnYear is the first year NDBC files carry a minute column
const minuteColumnYear = 2005

// ParseResult holds the records parsed from one chunk. Skipped counts data
// lines that were dropped because they were too short or had a bad date.
type ParseResult struct {
	Wind    []models.WindRecord
	Wave    []models.WaveRecord
	Skipped int
}

// Parse turns the text of one NDBC chunk into typed records.
//
// Meteorological chunks yield a wind and a wave record per line. Spectral
// chunks yield one wave record per line carrying the component for dt, with
// the frequency bins taken from the first line of the payload.
func Parse(buoy int, raw string, dt models.DataType) (*ParseResult, error) {
	if !dt.Valid() {
		return nil, NewUnsupportedDataTypeError(dt)
	}

	header, data, err := splitLines(raw, dt != models.Meteorological)
	if err != nil {
		return nil, &ParseError{DataType: dt, Message: "reading payload", Err: err}
	}

	result := &ParseResult{
		Wind: make([]models.WindRecord, 0),
		Wave: make([]models.WaveRecord, 0),
	}
	if len(data) == 0 {
		return result, nil
	}

	firstYear, err := strconv.Atoi(data[0].fields[0])
	if err != nil {
		return nil, &ParseError{DataType: dt, Message: fmt.Sprintf("line %d: bad year %q", data[0].number, data[0].fields[0]), Err: err}
	}
	offset := 4
	if firstYear >= minuteColumnYear {
		offset = 5
	}

	if dt == models.Meteorological {
		parseMeteorological(buoy, data, offset, result)
		return result, nil
	}

	bins, err := parseBins(header, offset)
	if err != nil {
		return nil, &ParseError{DataType: dt, Message: "bad bin header", Err: err}
	}
	if err := parseSpectral(buoy, data, offset, bins, dt, result); err != nil {
		return nil, err
	}
	return result, nil
}

type dataLine struct {
	number int
	fields []string
}

// splitLines separates the bin header (when wanted) from the data lines,
// dropping blanks, comments and repeated YY header rows.
func splitLines(raw string, wantHeader bool) ([]string, []dataLine, error) {
	var header []string
	data := make([]dataLine, 0)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	number := 0
	for scanner.Scan() {
		number++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if wantHeader && header == nil {
			header = strings.Fields(line)
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "YY") {
			continue
		}
		data = append(data, dataLine{number: number, fields: strings.Fields(line)})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return header, data, nil
}

func parseBins(header []string, offset int) ([]float64, error) {
	if len(header) <= offset {
		return nil, fmt.Errorf("header has %d columns, expected more than %d", len(header), offset)
	}
	bins := make([]float64, 0, len(header)-offset)
	for _, s := range header[offset:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bin %q: %w", s, err)
		}
		bins = append(bins, v)
	}
	return bins, nil
}

func parseMeteorological(buoy int, data []dataLine, offset int, result *ParseResult) {
	for _, line := range data {
		if len(line.fields) < offset+7 {
			skipLine(result, models.Meteorological, line, "too few columns")
			continue
		}
		ts, err := lineTimestamp(line.fields[:offset])
		if err != nil {
			skipLine(result, models.Meteorological, line, err.Error())
			continue
		}

		cols := line.fields[offset:]
		var missing bool
		direction := parseValue(cols[0], &missing)
		speed := parseValue(cols[1], &missing)
		height := parseValue(cols[3], &missing)
		peakDirection := parseValue(cols[4], &missing)
		peakPeriod := parseValue(cols[6], &missing)

		result.Wind = append(result.Wind, models.WindRecord{
			BuoyNumber: buoy,
			Timestamp:  ts,
			Direction:  direction,
			Speed:      speed,
		})
		result.Wave = append(result.Wave, models.WaveRecord{
			BuoyNumber:       buoy,
			Timestamp:        ts,
			Height:           &height,
			PeakDirection:    &peakDirection,
			PeakPeriod:       &peakPeriod,
			HasMissingValues: missing,
		})
	}
}

func parseSpectral(buoy int, data []dataLine, offset int, bins []float64, dt models.DataType, result *ParseResult) error {
	for _, line := range data {
		if len(line.fields) != offset+len(bins) {
			skipLine(result, dt, line, fmt.Sprintf("expected %d values, got %d", len(bins), len(line.fields)-offset))
			continue
		}
		ts, err := lineTimestamp(line.fields[:offset])
		if err != nil {
			skipLine(result, dt, line, err.Error())
			continue
		}

		var missing bool
		values := make([]float64, len(bins))
		for i, s := range line.fields[offset:] {
			values[i] = parseValue(s, &missing)
		}

		rec := models.WaveRecord{
			BuoyNumber:       buoy,
			Timestamp:        ts,
			FrequencyBins:    bins,
			HasMissingValues: missing,
		}
		if err := rec.SetComponent(dt, values); err != nil {
			return NewUnsupportedDataTypeError(dt)
		}
		result.Wave = append(result.Wave, rec)
	}
	return nil
}

func lineTimestamp(fields []string) (t time.Time, err error) {
	ints := make([]int, len(fields))
	for i, s := range fields {
		ints[i], err = strconv.Atoi(s)
		if err != nil {
			return t, fmt.Errorf("bad date field %q", s)
		}
	}
	return DateFromRaw(ints)
}

// parseValue coerces vendor overflow markers like "***" to NaN and flags the record
func parseValue(s string, missing *bool) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		*missing = true
		return math.NaN()
	}
	return v
}

func skipLine(result *ParseResult, dt models.DataType, line dataLine, reason string) {
	result.Skipped++
	log.Warn().
		Str("dataType", dt.String()).
		Int("line", line.number).
		Str("reason", reason).
		Msg("Skipping malformed line")
}
