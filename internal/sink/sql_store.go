package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/waveconnect/backend-go/internal/models"
)

// Dialect is the database/sql driver name, "postgres" or "sqlite"
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(strings.ToLower(driver)) {
	case DialectPostgres:
		return DialectPostgres, nil
	case DialectSQLite:
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver: %s", driver)
}

// Rebind rewrites ? placeholders to $1, $2, ... for postgres
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore persists records to postgres or sqlite
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLStore connects to the database and upgrades its schema
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", dialect, err)
	}

	store := &SQLStore{db: db, dialect: dialect}
	if err := store.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Init creates or upgrades the record tables
func (s *SQLStore) Init(ctx context.Context) error {
	steps, err := loadSchemaSteps(schemaFS, "sql")
	if err != nil {
		return fmt.Errorf("loading record store schema: %w", err)
	}
	if _, err := migrateSchema(ctx, s.db, s.dialect, steps); err != nil {
		return fmt.Errorf("upgrading record store schema: %w", err)
	}
	return nil
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Write stores every record in a single transaction. Records already present
// for a source and datetime are replaced.
func (s *SQLStore) Write(ctx context.Context, wind []models.WindRecord, wave []models.ReconstructedWaveRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	w := &txWriter{
		tx:      tx,
		dialect: s.dialect,
		sources: make(map[int]string),
		bins:    make(map[string]string),
	}

	for _, r := range wind {
		if err = w.insertWind(ctx, r); err != nil {
			return err
		}
	}
	for _, r := range wave {
		if err = w.insertWave(ctx, r); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}

	log.Info().
		Str("driver", string(s.dialect)).
		Int("wind", len(wind)).
		Int("wave", len(wave)).
		Msg("Stored records")
	return nil
}

// txWriter caches source and bin ids for the lifetime of one transaction
type txWriter struct {
	tx      *sql.Tx
	dialect Dialect
	sources map[int]string
	bins    map[string]string
}

func (w *txWriter) exec(ctx context.Context, query string, args ...any) error {
	_, err := w.tx.ExecContext(ctx, w.dialect.Rebind(query), args...)
	return err
}

// sourceID upserts the buoy into sources and returns its id
func (w *txWriter) sourceID(ctx context.Context, number int) (string, error) {
	if id, ok := w.sources[number]; ok {
		return id, nil
	}

	b, _ := models.BuoyOrDefault(number)
	query := `
        INSERT INTO sources (id, name, source_type, latitude, longitude)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (name) DO UPDATE
        SET source_type = excluded.source_type
        RETURNING id
    `

	var id string
	err := w.tx.QueryRowContext(ctx, w.dialect.Rebind(query),
		uuid.New().String(),
		b.Name(),
		string(b.Type),
		nullFloatPtr(b.Latitude),
		nullFloatPtr(b.Longitude),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to ensure source %s: %w", b.Name(), err)
	}

	w.sources[number] = id
	return id, nil
}

// binsID returns the id of an existing identical bin set or stores a new one
func (w *txWriter) binsID(ctx context.Context, axis string, bins []float64) (sql.NullString, error) {
	if len(bins) == 0 {
		return sql.NullString{}, nil
	}

	encoded, err := json.Marshal(bins)
	if err != nil {
		return sql.NullString{}, err
	}
	key := axis + ":" + string(encoded)
	if id, ok := w.bins[key]; ok {
		return sql.NullString{String: id, Valid: true}, nil
	}

	if err := w.exec(ctx,
		"INSERT INTO spectra_bins (id, axis, bins) VALUES (?, ?, ?) ON CONFLICT (axis, bins) DO NOTHING",
		uuid.New().String(), axis, string(encoded),
	); err != nil {
		return sql.NullString{}, fmt.Errorf("failed to store %s bins: %w", axis, err)
	}

	var id string
	if err := w.tx.QueryRowContext(ctx,
		w.dialect.Rebind("SELECT id FROM spectra_bins WHERE axis = ? AND bins = ?"),
		axis, string(encoded),
	).Scan(&id); err != nil {
		return sql.NullString{}, fmt.Errorf("failed to look up %s bins: %w", axis, err)
	}

	w.bins[key] = id
	return sql.NullString{String: id, Valid: true}, nil
}

func (w *txWriter) insertWind(ctx context.Context, r models.WindRecord) error {
	sourceID, err := w.sourceID(ctx, r.BuoyNumber)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO wind (source_id, datetime, direction, speed)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (source_id, datetime) DO UPDATE
        SET direction = excluded.direction, speed = excluded.speed
    `
	if err := w.exec(ctx, query, sourceID, r.Timestamp.UTC(), nullFloat(r.Direction), nullFloat(r.Speed)); err != nil {
		return fmt.Errorf("failed to store wind record at %s: %w", r.Timestamp.Format(models.ISOLayout), err)
	}
	return nil
}

func (w *txWriter) insertWave(ctx context.Context, r models.ReconstructedWaveRecord) error {
	sourceID, err := w.sourceID(ctx, r.BuoyNumber)
	if err != nil {
		return err
	}
	freqID, err := w.binsID(ctx, "frequency", r.FrequencyBins)
	if err != nil {
		return err
	}
	dirID, err := w.binsID(ctx, "direction", r.DirectionBins)
	if err != nil {
		return err
	}
	spectra, err := spectraJSON(r)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO wave (source_id, datetime, height, peak_direction, peak_period,
            spectra_type, frequency_bins_id, direction_bins_id, spectra, has_missing_values)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (source_id, datetime) DO UPDATE
        SET height = excluded.height,
            peak_direction = excluded.peak_direction,
            peak_period = excluded.peak_period,
            spectra_type = excluded.spectra_type,
            frequency_bins_id = excluded.frequency_bins_id,
            direction_bins_id = excluded.direction_bins_id,
            spectra = excluded.spectra,
            has_missing_values = excluded.has_missing_values
    `
	if err := w.exec(ctx, query,
		sourceID,
		r.Timestamp.UTC(),
		nullFloatPtr(r.Height),
		nullFloatPtr(r.PeakDirection),
		nullFloatPtr(r.PeakPeriod),
		r.Kind.String(),
		freqID,
		dirID,
		spectra,
		r.HasMissingValues,
	); err != nil {
		return fmt.Errorf("failed to store wave record at %s: %w", r.Timestamp.Format(models.ISOLayout), err)
	}
	return nil
}

// spectraJSON encodes the spectrum with NaN as null
func spectraJSON(r models.ReconstructedWaveRecord) (sql.NullString, error) {
	var v any
	switch r.Kind {
	case models.SpectrumOneD:
		v = nullableRow(r.Spectrum1D)
	case models.SpectrumFull2D, models.SpectrumAggregated2D:
		rows := make([][]*float64, len(r.Spectrum2D))
		for i, row := range r.Spectrum2D {
			rows[i] = nullableRow(row)
		}
		v = rows
	default:
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encoding spectra: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableRow(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = finiteOrNil(v)
	}
	return out
}

func nullFloat(f float64) sql.NullFloat64 {
	if p := finiteOrNil(f); p != nil {
		return sql.NullFloat64{Float64: *p, Valid: true}
	}
	return sql.NullFloat64{}
}

func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return nullFloat(*f)
}
