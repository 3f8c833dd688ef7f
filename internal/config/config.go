package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SQLite database path. ":memory:" is accepted for ad hoc runs.
	DBPath string

	// Source platform (recent-search API) configuration.
	TwitterBearerToken string
	SourceAccount      string
	SearchMaxResults   int

	// Geocoding configuration.
	GeocodeCity        string
	GeocodeMinInterval time.Duration
	GeocodeTimeout     time.Duration
	GeocodeCacheSize   int

	// Kafka event publishing (enabled when brokers are configured).
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	// Trigger schedule.
	IngestInterval    time.Duration
	IngestLookback    time.Duration
	RetireInterval    time.Duration
	StaleInterval     time.Duration
	StaleWindow       time.Duration
	BridgeLiftWindow  time.Duration
	BusinessHoursOnly bool

	// Public API rate limit, requests per second.
	APIRateLimit int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		DBPath: envOrDefault("DB_PATH", "incidents.db"),

		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		SourceAccount:      envOrDefault("SOURCE_ACCOUNT", "EPTC_POA"),

		GeocodeCity: envOrDefault("GEOCODE_CITY", "Porto Alegre"),

		KafkaTopic: envOrDefault("KAFKA_TOPIC", "incident-events"),
	}

	var err error
	if cfg.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SearchMaxResults, err = intEnv("SEARCH_MAX_RESULTS", 100); err != nil {
		return nil, err
	}
	if cfg.GeocodeMinInterval, err = durationEnv("GEOCODE_MIN_INTERVAL", 970*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = durationEnv("GEOCODE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheSize, err = intEnv("GEOCODE_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.IngestInterval, err = durationEnv("INGEST_INTERVAL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IngestLookback, err = durationEnv("INGEST_LOOKBACK", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RetireInterval, err = durationEnv("RETIRE_INTERVAL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StaleInterval, err = durationEnv("STALE_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StaleWindow, err = durationEnv("STALE_WINDOW", 4*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BridgeLiftWindow, err = durationEnv("BRIDGE_LIFT_WINDOW", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.APIRateLimit, err = intEnv("API_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	cfg.BusinessHoursOnly = envOrDefault("BUSINESS_HOURS_ONLY", "true") == "true"

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = parseBrokers(brokers)
	}
	cfg.KafkaEnabled = len(cfg.KafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	if cfg.TwitterBearerToken == "" {
		return nil, errors.New("TWITTER_BEARER_TOKEN is required")
	}
	if cfg.SourceAccount == "" {
		return nil, errors.New("SOURCE_ACCOUNT is required")
	}
	if cfg.SearchMaxResults < 10 || cfg.SearchMaxResults > 100 {
		// The recent-search endpoint rejects values outside this range.
		return nil, errors.New("SEARCH_MAX_RESULTS must be between 10 and 100")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
