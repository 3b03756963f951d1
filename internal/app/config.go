package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"lighthouse_dashboard/internal/cache"
	"lighthouse_dashboard/internal/config"
	"lighthouse_dashboard/internal/retry"
	"lighthouse_dashboard/internal/sheets"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	zerolog.SetGlobalLevel(logLevel(levelStr, os.Getenv("ENV") == "production"))
	if _, known := logLevels[levelStr]; !known && levelStr != "" {
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

var logLevels = map[string]zerolog.Level{
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"panic":    zerolog.PanicLevel,
	"disabled": zerolog.Disabled,
}

func logLevel(levelStr string, production bool) zerolog.Level {
	if level, ok := logLevels[levelStr]; ok {
		return level
	}
	if levelStr == "" && production {
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return d, nil
}

type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	ClientEmail     string
	PrivateKey      string

	// RedisURL selects the Redis cache; empty keeps snapshots in process.
	RedisURL string
	CacheTTL time.Duration

	SheetRequestDelay time.Duration
	ListenAddr        string
	Location          *time.Location

	// WarmInterval of zero disables the background cache warmer.
	WarmInterval time.Duration
}

// LoadConfig reads the service configuration from the environment. A missing
// SPREADSHEET_ID is fatal.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SpreadsheetID:   GetRequiredEnv("SPREADSHEET_ID"),
		CredentialsFile: GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		ClientEmail:     os.Getenv("CLIENT_EMAIL"),
		PrivateKey:      os.Getenv("PRIVATE_KEY"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ListenAddr:      GetEnvWithDefault("LISTEN_ADDR", ":3000"),
	}

	var err error
	if cfg.CacheTTL, err = getDurationWithDefault("CACHE_TTL", cache.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.CacheTTL == 0 {
		return nil, fmt.Errorf("invalid CACHE_TTL: must be positive")
	}
	if cfg.SheetRequestDelay, err = getDurationWithDefault("SHEET_REQUEST_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getDurationWithDefault("WARM_INTERVAL", 0); err != nil {
		return nil, err
	}

	tz := GetEnvWithDefault("TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	log.Debug().
		Str("listen_addr", cfg.ListenAddr).
		Bool("redis", cfg.RedisURL != "").
		Dur("cache_ttl", cfg.CacheTTL).
		Dur("sheet_request_delay", cfg.SheetRequestDelay).
		Dur("warm_interval", cfg.WarmInterval).
		Str("timezone", cfg.Location.String()).
		Msg("Loaded configuration")

	return cfg, nil
}

// InitializeSheetsClient creates the Google Sheets client from the configured
// credentials.
func InitializeSheetsClient(ctx context.Context, cfg *Config) *sheets.Client {
	log.Debug().Msg("Initializing sheets client")

	opts, err := sheets.CredentialOptions(cfg.ClientEmail, cfg.PrivateKey, cfg.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid Google credentials")
	}

	sheetsClient, err := sheets.NewClient(ctx, cfg.SpreadsheetID, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	log.Debug().Msg("Sheets client initialized successfully")
	return sheetsClient
}

// InitializeCache connects to Redis when configured. An unreachable Redis
// falls back to the in-process cache so the dashboard keeps serving.
func InitializeCache(ctx context.Context, cfg *Config, resilience config.ResilienceConfig) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, using in-process cache")
		return cache.NewMemoryCache(), func() {}
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}

	_, err = retry.WithRetry(ctx, resilience.CacheConnect, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, redisCache.Ping(ctx)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, falling back to in-process cache")
		_ = redisCache.Close()
		return cache.NewMemoryCache(), func() {}
	}

	log.Info().Msg("Connected to Redis cache")
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}
