package buoy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/internal/ndbc"
	"github.com/waveconnect/backend-go/internal/spectra"
)

const (
	defaultWorkers          = 4
	defaultNumDirectionBins = 16
)

// RecordsFetcher is what the Lambda and HTTP surfaces need from a Service
type RecordsFetcher interface {
	FetchBuoyRecords(ctx context.Context, buoy int, start, stop time.Time) (*Result, error)
	FetchBuoyRecordsWithBins(ctx context.Context, buoy int, start, stop time.Time, numDirectionBins int) (*Result, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Result is the output of one pipeline run
type Result struct {
	Buoy         int
	Wind         []models.WindRecord
	Wave         []models.ReconstructedWaveRecord
	RecordErrors []RecordError
	Chunks       []models.TimeChunk
	SkippedLines int
}

// Service runs the fetch, parse, join and reconstruct pipeline for a buoy
type Service struct {
	fetcher          ndbc.RawFetcher
	clock            Clock
	workers          int
	numDirectionBins int
}

var _ RecordsFetcher = (*Service)(nil)

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithNumDirectionBins ignores values outside [0, spectra.MaxDirectionBins]
func WithNumDirectionBins(n int) Option {
	return func(s *Service) {
		if spectra.ValidateDirectionBins(n) == nil {
			s.numDirectionBins = n
		}
	}
}

func NewService(fetcher ndbc.RawFetcher, opts ...Option) *Service {
	s := &Service{
		fetcher:          fetcher,
		clock:            systemClock{},
		workers:          defaultWorkers,
		numDirectionBins: defaultNumDirectionBins,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type fetchJob struct {
	index int
	dt    models.DataType
	chunk models.TimeChunk
}

type fetchResult struct {
	job  fetchJob
	body string
	ok   bool
}

// FetchBuoyRecords returns the wind and reconstructed wave records of a buoy
// for [start, stop]. Chunks that fail to download or hold no data are dropped;
// records that cannot be reconstructed are reported in RecordErrors.
func (s *Service) FetchBuoyRecords(ctx context.Context, buoy int, start, stop time.Time) (*Result, error) {
	return s.FetchBuoyRecordsWithBins(ctx, buoy, start, stop, s.numDirectionBins)
}

// FetchBuoyRecordsWithBins is FetchBuoyRecords with a per-call direction resolution
func (s *Service) FetchBuoyRecordsWithBins(ctx context.Context, buoy int, start, stop time.Time, numDirectionBins int) (*Result, error) {
	if err := spectra.ValidateDirectionBins(numDirectionBins); err != nil {
		return nil, err
	}

	chunks, err := ndbc.PlanChunks(start, stop, s.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("buoy", buoy).
		Time("start", start).
		Time("stop", stop).
		Int("chunks", len(chunks)).
		Msg("Planned NDBC chunks")

	bodies, err := s.fetchAll(ctx, buoy, chunks)
	if err != nil {
		return nil, err
	}

	result := &Result{Buoy: buoy, Chunks: chunks}

	parsed := make(map[models.DataType]*ndbc.ParseResult)
	for _, dt := range models.AllDataTypes() {
		merged := &ndbc.ParseResult{}
		for i, chunk := range chunks {
			body, ok := bodies[dt][i]
			if !ok {
				continue
			}
			pr, err := ndbc.Parse(buoy, body, dt)
			if err != nil {
				return nil, fmt.Errorf("parsing %s chunk %s: %w", dt, chunk, err)
			}
			merged.Wind = append(merged.Wind, pr.Wind...)
			merged.Wave = append(merged.Wave, pr.Wave...)
			merged.Skipped += pr.Skipped
		}
		parsed[dt] = merged
		result.SkippedLines += merged.Skipped
	}

	met := parsed[models.Meteorological]
	result.Wind = ndbc.FilterWind(met.Wind, start, stop)
	waves := ndbc.FilterWave(met.Wave, start, stop)
	if len(result.Wind) == 0 && len(waves) == 0 {
		return nil, NewNoDataAvailableError(buoy, start, stop)
	}

	for _, dt := range models.SpectralTypes() {
		series := ndbc.FilterWave(parsed[dt].Wave, start, stop)
		waves, err = spectra.Join(waves, spectra.NewTimestampSet(waves), series, spectra.NewTimestampSet(series))
		if err != nil {
			return nil, fmt.Errorf("joining %s: %w", dt, err)
		}
	}

	sort.SliceStable(waves, func(i, j int) bool {
		return waves[i].Timestamp.Before(waves[j].Timestamp)
	})

	result.Wave = make([]models.ReconstructedWaveRecord, 0, len(waves))
	for _, w := range waves {
		rec, err := spectra.Reconstruct(w, numDirectionBins)
		if err != nil {
			log.Warn().
				Err(err).
				Int("buoy", buoy).
				Time("timestamp", w.Timestamp).
				Msg("Skipping wave record")
			result.RecordErrors = append(result.RecordErrors, RecordError{Timestamp: w.Timestamp, Err: err})
			continue
		}
		result.Wave = append(result.Wave, rec)
	}

	log.Info().
		Int("buoy", buoy).
		Int("wind", len(result.Wind)).
		Int("wave", len(result.Wave)).
		Int("recordErrors", len(result.RecordErrors)).
		Int("skippedLines", result.SkippedLines).
		Msg("Fetched buoy records")

	return result, nil
}

// fetchAll downloads every (data type, chunk) pair with a fixed pool of
// workers. The returned map is indexed by data type, then chunk position.
func (s *Service) fetchAll(ctx context.Context, buoy int, chunks []models.TimeChunk) (map[models.DataType]map[int]string, error) {
	jobs := make([]fetchJob, 0, len(chunks)*len(models.AllDataTypes()))
	for _, dt := range models.AllDataTypes() {
		for i, chunk := range chunks {
			jobs = append(jobs, fetchJob{index: i, dt: dt, chunk: chunk})
		}
	}

	work := make(chan fetchJob, len(jobs))
	results := make(chan fetchResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range work {
				results <- s.fetchOne(ctx, buoy, job)
			}
		}()
	}

	// Send work
	for _, job := range jobs {
		work <- job
	}
	close(work)

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	bodies := make(map[models.DataType]map[int]string)
	for _, dt := range models.AllDataTypes() {
		bodies[dt] = make(map[int]string)
	}
	for r := range results {
		if r.ok {
			bodies[r.job.dt][r.job.index] = r.body
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bodies, nil
}

func (s *Service) fetchOne(ctx context.Context, buoy int, job fetchJob) fetchResult {
	if ctx.Err() != nil {
		return fetchResult{job: job}
	}

	body, err := s.fetcher.Fetch(ctx, buoy, job.chunk, job.dt)
	if err != nil {
		log.Warn().
			Err(err).
			Int("buoy", buoy).
			Str("chunk", job.chunk.String()).
			Str("dataType", job.dt.String()).
			Msg("Dropping chunk after fetch failure")
		return fetchResult{job: job}
	}
	if !ndbc.GaveData(body) {
		log.Debug().
			Int("buoy", buoy).
			Str("chunk", job.chunk.String()).
			Str("dataType", job.dt.String()).
			Msg("No data for chunk")
		return fetchResult{job: job}
	}
	return fetchResult{job: job, body: body, ok: true}
}
