package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/waveconnect/backend-go/internal/cache"
	"github.com/waveconnect/backend-go/internal/config"
	"github.com/waveconnect/backend-go/internal/models"
	"github.com/waveconnect/backend-go/internal/sink"
	"github.com/waveconnect/backend-go/internal/spectra"
)

var fileExtensions = map[string]string{
	sink.FormatJSON:    "json",
	sink.FormatParquet: "parquet",
	sink.FormatNetCDF:  "nc",
}

func (c *cli) newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch BUOY START STOP",
		Short: "Fetch wind and wave records for a buoy",
		Long: `Fetch wind and wave records for BUOY between START and STOP (inclusive).
Times are UTC, as 2006-01-02T15:04:05 or 2006-01-02.`,
		Example: "  buoyboy fetch 46022 2009-01-01 2009-02-01 --format netcdf",
		Args:    cobra.ExactArgs(3),
		RunE:    c.runFetch,
	}

	flags := cmd.Flags()
	flags.String("format", "", fmt.Sprintf("output format %v (default json)", sink.Formats()))
	flags.Int("num-dir-bins", 16, "direction bins of reconstructed spectra; 0 keeps the raw components")
	flags.String("wind-file", "", "wind output file (default <buoy>-wind.<ext>)")
	flags.String("wave-file", "", "wave output file (default <buoy>-wave.<ext>)")
	flags.String("database-driver", "", "database driver for --format database, postgres or sqlite (default sqlite)")
	flags.String("database-url", "", "database DSN for --format database")
	flags.String("dynamo-table", "", "DynamoDB table for --format dynamo")
	flags.String("ndbc-url", "", "NDBC base URL")

	for _, name := range []string{"format", "num-dir-bins", "wind-file", "wave-file", "database-driver", "database-url", "dynamo-table", "ndbc-url"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	return cmd
}

func (c *cli) runFetch(cmd *cobra.Command, args []string) error {
	number, err := strconv.Atoi(args[0])
	if err != nil || number <= 0 {
		return fmt.Errorf("invalid buoy number: %s", args[0])
	}
	start, err := parseTime(args[1])
	if err != nil {
		return err
	}
	stop, err := parseTime(args[2])
	if err != nil {
		return err
	}

	if err := spectra.ValidateDirectionBins(c.v.GetInt("num-dir-bins")); err != nil {
		return err
	}

	cfg := c.appConfig()
	cacheCfg := config.GetCacheConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, closeSink, err := c.openSink(ctx, cfg, cacheCfg, number)
	if err != nil {
		return err
	}
	defer closeSink()

	svc, err := c.serviceFactory.NewService(ctx, cfg, cacheCfg)
	if err != nil {
		return err
	}

	result, err := svc.FetchBuoyRecords(ctx, number, start, stop)
	if err != nil {
		return err
	}
	for _, re := range result.RecordErrors {
		log.Warn().Time("timestamp", re.Timestamp).Err(re.Err).Msg("Record not reconstructed")
	}

	if err := out.Write(ctx, result.Wind, result.Wave); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d wind and %d wave records for buoy %d\n",
		len(result.Wind), len(result.Wave), number)
	return nil
}

func (c *cli) openSink(ctx context.Context, cfg *config.Config, cacheCfg *config.CacheConfig, number int) (sink.Sink, func(), error) {
	opts := sink.Options{
		WindPath:        c.v.GetString("wind-file"),
		WavePath:        c.v.GetString("wave-file"),
		Table:           cfg.DynamoTable,
		BatchSize:       cacheCfg.BatchSize,
		MaxBatchRetries: cacheCfg.MaxBatchRetries,
	}
	if ext, ok := fileExtensions[cfg.OutputFormat]; ok {
		b, _ := models.BuoyOrDefault(number)
		if opts.WindPath == "" {
			opts.WindPath = fmt.Sprintf("%s-wind.%s", b.Name(), ext)
		}
		if opts.WavePath == "" {
			opts.WavePath = fmt.Sprintf("%s-wave.%s", b.Name(), ext)
		}
	}

	closer := func() {}
	switch cfg.OutputFormat {
	case sink.FormatDatabase:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("--database-url is required for the database format")
		}
		store, err := sink.OpenSQLStore(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		opts.Store = store
		closer = func() { store.Close() }
	case sink.FormatDynamo:
		client, err := cache.NewDynamoClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		opts.Dynamo = client
	}

	out, err := sink.New(cfg.OutputFormat, opts)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return out, closer, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{models.ISOLayout, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected %s or 2006-01-02", s, models.ISOLayout)
}
