package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/logger"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when YELP_API_KEY is absent after .env loading.
var ErrMissingAPIKey = errors.New("missing YELP_API_KEY environment variable")

// FailurePolicy decides what happens to a line whose lookup request fails.
type FailurePolicy string

const (
	// FailurePolicyFail aborts the run on the first failed lookup.
	FailurePolicyFail FailurePolicy = "fail"
	// FailurePolicyFallback renders the line like a lookup with no match.
	FailurePolicyFallback FailurePolicy = "fallback"
)

type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
}

func (a AzureConfig) Enabled() bool {
	return a.AccountName != "" && a.AccountKey != "" && a.Container != ""
}

type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

type Config struct {
	YelpAPIKey      string
	YelpBaseURL     string
	DefaultLocation string
	OriginLat       float64
	OriginLon       float64

	OutputFile    string
	FontPath      string
	LookupWorkers int
	FailurePolicy FailurePolicy

	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	MaxRequestBodySize int64
	MaxLinesPerRequest int

	LogLevel  string
	LogFormat string

	Azure AzureConfig
	S3    S3Config
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads an optional .env file (ENV_FILE, default ".env") and
// then the process environment. Variables already set in the environment
// win over the file.
func LoadFromEnv() (*Config, error) {
	loadEnvFile(getEnvOrDefault("ENV_FILE", ".env"))

	cfg := &Config{
		YelpAPIKey:      strings.TrimSpace(os.Getenv("YELP_API_KEY")),
		YelpBaseURL:     getEnvOrDefault("YELP_API_BASE_URL", "https://api.yelp.com/v3"),
		DefaultLocation: getEnvOrDefault("DEFAULT_LOCATION", "Bothell, WA"),
		OriginLat:       parseFloatOrDefault("ORIGIN_LAT", 47.762),
		OriginLon:       parseFloatOrDefault("ORIGIN_LON", -122.205),

		OutputFile:    getEnvOrDefault("OUTPUT_FILE", "restaurants_comparison.png"),
		FontPath:      getEnvOrDefault("FONT_PATH", "arial.ttf"),
		LookupWorkers: int(parseIntOrDefault("LOOKUP_WORKERS", 1)),
		FailurePolicy: FailurePolicy(strings.ToLower(getEnvOrDefault("LOOKUP_FAILURE_POLICY", string(FailurePolicyFail)))),

		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 2*time.Minute),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 64*1024),
		MaxLinesPerRequest: int(parseIntOrDefault("MAX_LINES_PER_REQUEST", 20)),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		Azure: AzureConfig{
			AccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
			Container:   os.Getenv("AZURE_STORAGE_CONTAINER"),
		},
		S3: S3Config{
			Bucket: os.Getenv("S3_BUCKET"),
			Region: getEnvOrDefault("AWS_REGION", "us-east-1"),
			Prefix: getEnvOrDefault("S3_PREFIX", "grids/"),
		},
	}

	if cfg.YelpAPIKey == "" {
		return nil, apperrors.NewConfigError("YELP_API_KEY is not set, check your .env file", ErrMissingAPIKey)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// Validate checks ranges of the non-credential settings.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxLinesPerRequest <= 0 {
		return fmt.Errorf("MAX_LINES_PER_REQUEST must be > 0 (got %d)", c.MaxLinesPerRequest)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			c.RequestTimeout, c.ImageFetchTimeout)
	}
	if c.LookupWorkers < 1 {
		return fmt.Errorf("LOOKUP_WORKERS must be >= 1 (got %d)", c.LookupWorkers)
	}
	if c.OriginLat < -90 || c.OriginLat > 90 || c.OriginLon < -180 || c.OriginLon > 180 {
		return fmt.Errorf("origin out of range: (%f, %f)", c.OriginLat, c.OriginLon)
	}
	switch c.FailurePolicy {
	case FailurePolicyFail, FailurePolicyFallback:
	default:
		return fmt.Errorf("LOOKUP_FAILURE_POLICY must be %q or %q (got %q)",
			FailurePolicyFail, FailurePolicyFallback, c.FailurePolicy)
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return fmt.Errorf("OUTPUT_FILE must not be empty")
	}
	return nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		logger.WithField("path", path).Debug("No .env file, using process environment")
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Failed to load .env file")
		return
	}
	logger.WithField("path", path).Debug("Loaded .env file")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}
