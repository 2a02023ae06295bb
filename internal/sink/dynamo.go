package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/models"
)

const (
	defaultBatchSize       = 25
	defaultMaxBatchRetries = 3
)

// DynamoDBClient is the part of the DynamoDB API the sink uses
type DynamoDBClient interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// WindItem is a wind record as stored in DynamoDB
type WindItem struct {
	PK         string   `dynamodbav:"pk"`
	SK         string   `dynamodbav:"sk"`
	BuoyNumber int      `dynamodbav:"buoyNumber"`
	Direction  *float64 `dynamodbav:"winDirection,omitempty"`
	Speed      *float64 `dynamodbav:"winSpeed,omitempty"`
}

// WaveItem is a reconstructed wave record as stored in DynamoDB. Spectra is
// row-major with shape SpectraRows x SpectraCols; missing values are dropped
// to null.
type WaveItem struct {
	PK               string     `dynamodbav:"pk"`
	SK               string     `dynamodbav:"sk"`
	BuoyNumber       int        `dynamodbav:"buoyNumber"`
	Height           *float64   `dynamodbav:"wavHeight,omitempty"`
	PeakDirection    *float64   `dynamodbav:"wavPeakDir,omitempty"`
	PeakPeriod       *float64   `dynamodbav:"wavPeakPeriod,omitempty"`
	SpectraType      string     `dynamodbav:"spectraType,omitempty"`
	FrequencyBins    []float64  `dynamodbav:"frequencyBins,omitempty"`
	DirectionBins    []float64  `dynamodbav:"directionBins,omitempty"`
	Spectra          []*float64 `dynamodbav:"spectra,omitempty"`
	SpectraRows      int        `dynamodbav:"spectraRows,omitempty"`
	SpectraCols      int        `dynamodbav:"spectraCols,omitempty"`
	HasMissingValues bool       `dynamodbav:"hasMissingValues"`
}

// DynamoSink writes one item per record with BatchWriteItem
type DynamoSink struct {
	client     DynamoDBClient
	table      string
	batchSize  int
	maxRetries int
	sleep      func(time.Duration)
}

func NewDynamoSink(client DynamoDBClient, table string, batchSize, maxRetries int) *DynamoSink {
	if batchSize <= 0 || batchSize > defaultBatchSize {
		batchSize = defaultBatchSize
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxBatchRetries
	}
	return &DynamoSink{
		client:     client,
		table:      table,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
	}
}

func windKey(number int) string {
	return buoyName(number) + "#wind"
}

func waveKey(number int) string {
	return buoyName(number) + "#wave"
}

func (s *DynamoSink) Write(ctx context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) error {
	requests := make([]types.WriteRequest, 0, len(wind)+len(wave))

	for _, r := range wind {
		item, err := attributevalue.MarshalMap(WindItem{
			PK:         windKey(r.BuoyNumber),
			SK:         r.Timestamp.Format(models.ISOLayout),
			BuoyNumber: r.BuoyNumber,
			Direction:  finiteOrNil(r.Direction),
			Speed:      finiteOrNil(r.Speed),
		})
		if err != nil {
			return fmt.Errorf("marshaling wind record: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for _, r := range wave {
		values, rows, cols := flatten(r)
		item, err := attributevalue.MarshalMap(WaveItem{
			PK:               waveKey(r.BuoyNumber),
			SK:               r.Timestamp.Format(models.ISOLayout),
			BuoyNumber:       r.BuoyNumber,
			Height:           finitePtr(r.Height),
			PeakDirection:    finitePtr(r.PeakDirection),
			PeakPeriod:       finitePtr(r.PeakPeriod),
			SpectraType:      r.Kind.String(),
			FrequencyBins:    r.FrequencyBins,
			DirectionBins:    r.DirectionBins,
			Spectra:          nullableValues(values),
			SpectraRows:      rows,
			SpectraCols:      cols,
			HasMissingValues: r.HasMissingValues,
		})
		if err != nil {
			return fmt.Errorf("marshaling wave record: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for i := 0; i < len(requests); i += s.batchSize {
		end := i + s.batchSize
		if end > len(requests) {
			end = len(requests)
		}
		if err := s.writeBatch(ctx, requests[i:end]); err != nil {
			return err
		}
	}

	log.Info().
		Str("table", s.table).
		Int("wind", len(wind)).
		Int("wave", len(wave)).
		Msg("Wrote records to DynamoDB")
	return nil
}

// writeBatch retries failed calls and unprocessed items with exponential backoff
func (s *DynamoSink) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := batch
	var lastErr error
	for retry := 0; retry < s.maxRetries; retry++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.table: pending,
			},
		})
		switch {
		case err != nil:
			lastErr = err
		case out != nil && len(out.UnprocessedItems[s.table]) > 0:
			pending = out.UnprocessedItems[s.table]
			lastErr = fmt.Errorf("%d unprocessed items", len(pending))
		default:
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.sleep(time.Duration(1<<retry) * 100 * time.Millisecond)
	}
	return fmt.Errorf("batch writing to %s after %d retries: %w", s.table, s.maxRetries, lastErr)
}

func nullableValues(values []float64) []*float64 {
	if values == nil {
		return nil
	}
	return nullableRow(values)
}
