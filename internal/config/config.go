package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waveconnect/backend-go/internal/ndbc"
	"github.com/waveconnect/backend-go/internal/spectra"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	MaxRetries  int
	NDBCBaseURL string

	// NumDirectionBins is the angular resolution of reconstructed spectra;
	// 0 keeps the raw directional components instead.
	NumDirectionBins int
	FetchWorkers     int

	OutputFormat   string
	DatabaseDriver string
	DatabaseURL    string
	DynamoTable    string
	S3Bucket       string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil || level == "" {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithMaxRetries ignores negative values; 0 disables retrying
func WithMaxRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.MaxRetries = retries
		}
	}
}

func WithNDBCBaseURL(url string) Option {
	return func(c *Config) {
		c.NDBCBaseURL = strings.TrimRight(url, "/")
	}
}

// WithNumDirectionBins ignores values outside [0, spectra.MaxDirectionBins]
func WithNumDirectionBins(n int) Option {
	return func(c *Config) {
		if spectra.ValidateDirectionBins(n) == nil {
			c.NumDirectionBins = n
		}
	}
}

func WithFetchWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.FetchWorkers = n
		}
	}
}

func WithOutputFormat(format string) Option {
	return func(c *Config) {
		c.OutputFormat = strings.ToLower(format)
	}
}

// WithDatabase sets the SQL driver ("postgres" or "sqlite") and its DSN
func WithDatabase(driver, url string) Option {
	return func(c *Config) {
		c.DatabaseDriver = driver
		c.DatabaseURL = url
	}
}

func WithDynamoTable(table string) Option {
	return func(c *Config) {
		c.DynamoTable = table
	}
}

func WithS3Bucket(bucket string) Option {
	return func(c *Config) {
		c.S3Bucket = bucket
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:      "production",
		LogLevel:         zerolog.InfoLevel,
		HTTPTimeout:      30 * time.Second,
		MaxRetries:       3,
		NDBCBaseURL:      ndbc.DefaultBaseURL,
		NumDirectionBins: 16,
		FetchWorkers:     4,
		OutputFormat:     "json",
		DatabaseDriver:   "sqlite",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 30*time.Second)),
		WithMaxRetries(getEnvInt("HTTP_MAX_RETRIES", 3)),
		WithNDBCBaseURL(getEnvOrDefault("NDBC_BASE_URL", ndbc.DefaultBaseURL)),
		WithNumDirectionBins(getEnvInt("NUM_DIR_BINS", 16)),
		WithFetchWorkers(getEnvInt("FETCH_WORKERS", 4)),
		WithOutputFormat(getEnvOrDefault("OUTPUT_FORMAT", "json")),
		WithDatabase(getEnvOrDefault("DATABASE_DRIVER", "sqlite"), os.Getenv("DATABASE_URL")),
		WithDynamoTable(os.Getenv("DYNAMO_TABLE")),
		WithS3Bucket(os.Getenv("CHUNK_CACHE_BUCKET")),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
