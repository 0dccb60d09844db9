// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetEnv() string
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetScanCronSpec() string
	GetGeocodeCronSpec() string
	GetGeocodeBatchLimit() int
}

// GeocoderConfig provides settings for the forward/reverse geocoding client
// and the coordinate backfill job.
type GeocoderConfig interface {
	GetGeocoderBaseURL() string
	GetGeocoderUserAgent() string
	GetGeocoderLanguage() string
	GetGeocoderCountry() string
	GetGeocoderMinInterval() time.Duration
	GetGeocoderFallbackCity() string
}

// MatcherConfig provides the similarity gates used by the dedupe scan.
type MatcherConfig interface {
	GetAddressSimilarityGate() float64
	GetPriceTolerancePct() float64
	GetPriceToleranceTightPct() float64
	GetPriceTightThreshold() float64
	GetSizeToleranceSqm() float64
	GetImageMaxHammingDistance() int
}

// IngestConfig provides settings for the listing input stream consumer.
type IngestConfig interface {
	GetRabbitMQURL() string
	GetListingQueueName() string
	GetIngestPrefetch() int
}

// OwnershipConfig provides settings for the owner classifier.
type OwnershipConfig interface {
	GetOwnershipRulesPath() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	CORSAllowAll bool
	CORSOrigins  []string

	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	ScanCronSpec      string
	GeocodeCronSpec   string
	GeocodeBatchLimit int

	GeocoderBaseURL      string
	GeocoderUserAgent    string
	GeocoderLanguage     string
	GeocoderCountry      string
	GeocoderMinInterval  time.Duration
	GeocoderFallbackCity string

	AddressSimilarityGate   float64
	PriceTolerancePct       float64
	PriceToleranceTightPct  float64
	PriceTightThreshold     float64
	SizeToleranceSqm        float64
	ImageMaxHammingDistance int

	RabbitMQURL      string
	ListingQueueName string
	IngestPrefetch   int

	OwnershipRulesPath string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }
func (c *Config) GetScanCronSpec() string    { return c.ScanCronSpec }
func (c *Config) GetGeocodeCronSpec() string { return c.GeocodeCronSpec }
func (c *Config) GetGeocodeBatchLimit() int  { return c.GeocodeBatchLimit }

// GeocoderConfig implementation
func (c *Config) GetGeocoderBaseURL() string            { return c.GeocoderBaseURL }
func (c *Config) GetGeocoderUserAgent() string          { return c.GeocoderUserAgent }
func (c *Config) GetGeocoderLanguage() string           { return c.GeocoderLanguage }
func (c *Config) GetGeocoderCountry() string            { return c.GeocoderCountry }
func (c *Config) GetGeocoderMinInterval() time.Duration { return c.GeocoderMinInterval }
func (c *Config) GetGeocoderFallbackCity() string       { return c.GeocoderFallbackCity }

// MatcherConfig implementation
func (c *Config) GetAddressSimilarityGate() float64  { return c.AddressSimilarityGate }
func (c *Config) GetPriceTolerancePct() float64      { return c.PriceTolerancePct }
func (c *Config) GetPriceToleranceTightPct() float64 { return c.PriceToleranceTightPct }
func (c *Config) GetPriceTightThreshold() float64    { return c.PriceTightThreshold }
func (c *Config) GetSizeToleranceSqm() float64       { return c.SizeToleranceSqm }
func (c *Config) GetImageMaxHammingDistance() int    { return c.ImageMaxHammingDistance }

// IngestConfig implementation
func (c *Config) GetRabbitMQURL() string      { return c.RabbitMQURL }
func (c *Config) GetListingQueueName() string { return c.ListingQueueName }
func (c *Config) GetIngestPrefetch() int      { return c.IngestPrefetch }

// OwnershipConfig implementation
func (c *Config) GetOwnershipRulesPath() string { return c.OwnershipRulesPath }

// =============================================================================
// Loading
// =============================================================================

// Load reads configuration from environment variables, with a best-effort
// .env file load for local development.
func Load() (*Config, error) {
	// Missing .env is fine in production; real env vars win either way.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		CORSAllowAll: getEnvBool("CORS_ALLOW_ALL", false),
		CORSOrigins:  splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000")),

		RedisURL:          os.Getenv("REDIS_URL"),
		RedisTLSInsecure:  getEnvBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  getEnvInt("ASYNQ_CONCURRENCY", 10),
		ScanCronSpec:      getEnv("SCAN_CRON", "0 */6 * * *"),
		GeocodeCronSpec:   getEnv("GEOCODE_CRON", "30 2 * * *"),
		GeocodeBatchLimit: getEnvInt("GEOCODE_BATCH_LIMIT", 500),

		GeocoderBaseURL:      getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:    getEnv("GEOCODER_USER_AGENT", "PropscanBackend/1.0"),
		GeocoderLanguage:     getEnv("GEOCODER_LANGUAGE", "it"),
		GeocoderCountry:      getEnv("GEOCODER_COUNTRY", "it"),
		GeocoderMinInterval:  getEnvDuration("GEOCODER_MIN_INTERVAL", 1100*time.Millisecond),
		GeocoderFallbackCity: getEnv("GEOCODER_FALLBACK_CITY", "Milano"),

		AddressSimilarityGate:   getEnvFloat("MATCH_ADDRESS_GATE", 0.75),
		PriceTolerancePct:       getEnvFloat("MATCH_PRICE_TOLERANCE_PCT", 10),
		PriceToleranceTightPct:  getEnvFloat("MATCH_PRICE_TOLERANCE_TIGHT_PCT", 5),
		PriceTightThreshold:     getEnvFloat("MATCH_PRICE_TIGHT_THRESHOLD", 100000),
		SizeToleranceSqm:        getEnvFloat("MATCH_SIZE_TOLERANCE_SQM", 8),
		ImageMaxHammingDistance: getEnvInt("MATCH_IMAGE_MAX_HAMMING", 5),

		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		ListingQueueName: getEnv("LISTING_QUEUE", "listings.normalized"),
		IngestPrefetch:   getEnvInt("INGEST_PREFETCH", 8),

		OwnershipRulesPath: os.Getenv("OWNERSHIP_RULES_PATH"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
