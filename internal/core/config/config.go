package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDevelopmentAPI = "http://localhost:8000/api/v1"
	defaultProductionAPI  = "https://api.cylinderops.example/api/v1"
)

type Config struct {
	Env               string
	AppHost           string
	LogLevel          string
	APIBaseURL        string
	TokenStorePath    string
	ValidationTimeout time.Duration
	MutationTimeout   time.Duration
	RequestTimeout    time.Duration
	VerifySettleDelay time.Duration
	DatabaseURL       string
	MigrationsDir     string
	NATSURL           string
	NATSSubject       string
}

// Load reads .env (without overwriting the process environment) and builds the config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, falling back to system environment variables.")
	}

	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Env:           valueOr(getenv("APP_ENV"), "development"),
		AppHost:       valueOr(getenv("APP_HOST"), ":8080"),
		LogLevel:      valueOr(getenv("LOG_LEVEL"), "info"),
		DatabaseURL:   getenv("DATABASE_URL"),
		MigrationsDir: valueOr(getenv("MIGRATIONS_DIR"), "./migrations"),
		NATSURL:       getenv("NATS_URL"),
		NATSSubject:   valueOr(getenv("NATS_SUBJECT"), "dashboard.outcomes"),
	}

	cfg.APIBaseURL = getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		if cfg.Env == "production" {
			cfg.APIBaseURL = defaultProductionAPI
		} else {
			cfg.APIBaseURL = defaultDevelopmentAPI
		}
	}

	cfg.TokenStorePath = getenv("TOKEN_STORE_PATH")
	if cfg.TokenStorePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.TokenStorePath = filepath.Join(home, ".cylinderops", "session.json")
	}

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"VALIDATION_TIMEOUT", 10 * time.Second, &cfg.ValidationTimeout},
		{"MUTATION_TIMEOUT", 30 * time.Second, &cfg.MutationTimeout},
		{"REQUEST_TIMEOUT", 60 * time.Second, &cfg.RequestTimeout},
		{"VERIFY_SETTLE_DELAY", 1500 * time.Millisecond, &cfg.VerifySettleDelay},
	}

	for _, d := range durations {
		value, err := durationOr(getenv(d.key), d.fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.target = value
	}

	return cfg, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func durationOr(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return d, nil
}
