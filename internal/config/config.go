package config

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"nodefixture/app/internal/domain/node"
)

// Config holds runtime configuration for the node fixture tooling.
type Config struct {
	DBPath            string
	DBBusyTimeout     time.Duration
	LogLevel          string
	SentryDSN         string
	Environment       string
	DefaultNodeType   string
	DefaultTextFormat string
}

const (
	defaultDBPath        = "./data/nodefixture.db"
	defaultDBBusyTimeout = 5 * time.Second
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
)

// Load reads configuration values from environment variables, applying defaults where necessary.
// An empty DEFAULT_TEXT_FORMAT means the default is resolved from the stored formats.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:            getEnv("DB_PATH", defaultDBPath),
		LogLevel:          getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:         os.Getenv("SENTRY_DSN"),
		Environment:       getEnv("ENV", defaultEnvironment),
		DefaultNodeType:   getEnv("DEFAULT_NODE_TYPE", node.DefaultType),
		DefaultTextFormat: strings.TrimSpace(os.Getenv("DEFAULT_TEXT_FORMAT")),
	}

	timeoutValue := getEnv("DB_BUSY_TIMEOUT", defaultDBBusyTimeout.String())
	timeout, err := time.ParseDuration(timeoutValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid DB_BUSY_TIMEOUT value: %s", timeoutValue)
	}
	if timeout <= 0 {
		return nil, eris.Errorf("invalid DB_BUSY_TIMEOUT value: %s must be positive", timeoutValue)
	}
	cfg.DBBusyTimeout = timeout

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
