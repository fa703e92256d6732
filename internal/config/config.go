package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName       = "FixMyHinge"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultRegion        = "us-east-1"
	defaultMinPhotos     = 10
	defaultMaxPhotos     = 20
	defaultShutdownDelay = 10 * time.Second
	defaultIdemTTL       = 24 * time.Hour
	defaultChallengeRate = 5

	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// Hosted platform credentials. When PlatformAPIKey is empty the service
	// runs against the in-process identity provider (development only).
	PlatformBaseURL string
	PlatformAPIKey  string

	DatabaseURL string
	RedisURL    string

	AWSRegion  string
	S3Bucket   string
	PhotoTable string

	MinPhotos int
	MaxPhotos int

	ChallengeRateLimit int
	ShutdownPeriod     time.Duration
	IdempotencyTTL     time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is merged in first when
// present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		PlatformBaseURL:    os.Getenv("PLATFORM_BASE_URL"),
		PlatformAPIKey:     os.Getenv("PLATFORM_API_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AWSRegion:          getEnv("AWS_REGION", defaultRegion),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		PhotoTable:         os.Getenv("DDB_TABLE"),
		MinPhotos:          defaultMinPhotos,
		MaxPhotos:          defaultMaxPhotos,
		ChallengeRateLimit: defaultChallengeRate,
		ShutdownPeriod:     defaultShutdownDelay,
		IdempotencyTTL:     defaultIdemTTL,
	}

	var err error
	if cfg.MinPhotos, err = intEnv("MIN_PHOTOS", cfg.MinPhotos); err != nil {
		return Config{}, err
	}
	if cfg.MaxPhotos, err = intEnv("MAX_PHOTOS", cfg.MaxPhotos); err != nil {
		return Config{}, err
	}
	if cfg.MinPhotos < 1 || cfg.MaxPhotos < cfg.MinPhotos {
		return Config{}, fmt.Errorf("photo bounds invalid: min=%d max=%d", cfg.MinPhotos, cfg.MaxPhotos)
	}
	if cfg.ChallengeRateLimit, err = intEnv("CHALLENGE_RATE_LIMIT", cfg.ChallengeRateLimit); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if !cfg.IsDev() {
		for key, val := range map[string]string{
			"PLATFORM_API_KEY": cfg.PlatformAPIKey,
			"DATABASE_URL":     cfg.DatabaseURL,
			"REDIS_URL":        cfg.RedisURL,
			"S3_BUCKET":        cfg.S3Bucket,
			"DDB_TABLE":        cfg.PhotoTable,
		} {
			if val == "" {
				return Config{}, fmt.Errorf("%s must be set when APP_ENV=%s", key, cfg.AppEnv)
			}
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development environment, where the
// in-memory platform fakes may substitute for missing external services.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
