// Package config loads studybot settings from STUDYBOT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/aranyoray/studybot/internal/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds process-wide settings. Cobra flags override individual
// fields after Load.
type Config struct {
	DB       string `env:"STUDYBOT_DB"`
	DBDriver string `env:"STUDYBOT_DB_DRIVER" envDefault:"sqlite"`

	Addr        string   `env:"STUDYBOT_ADDR" envDefault:":8000"`
	CORSOrigins []string `env:"STUDYBOT_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	JWTSecret   string   `env:"STUDYBOT_JWT_SECRET"`

	// ResearchSalt keys participant pseudonyms. Exports from processes
	// without a fixed salt cannot be joined with each other.
	ResearchSalt string `env:"STUDYBOT_RESEARCH_SALT"`

	LogFormat string `env:"STUDYBOT_LOG_FORMAT" envDefault:"console"`
	LogLevel  string `env:"STUDYBOT_LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"STUDYBOT_LOG_FILE"`

	// OTel turns on span export to OTelEndpoint (OTLP over HTTP).
	OTel         bool   `env:"STUDYBOT_OTEL"`
	OTelEndpoint string `env:"STUDYBOT_OTEL_ENDPOINT" envDefault:"http://localhost:4318"`
	ServiceName  string `env:"STUDYBOT_SERVICE_NAME" envDefault:"studybot"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Logging returns the logger options for this configuration.
func (c Config) Logging() logging.Options {
	return logging.Options{Format: c.LogFormat, Level: c.LogLevel, File: c.LogFile}
}

// DSN returns the data source for the configured driver. SQLite falls
// back to DefaultDBPath; Postgres requires STUDYBOT_DB.
func (c Config) DSN() (string, error) {
	switch c.DBDriver {
	case "", DriverSQLite:
		if c.DB != "" {
			return c.DB, EnsureDir(c.DB)
		}
		return DefaultDBPath()
	case DriverPostgres:
		if c.DB == "" {
			return "", errors.New("STUDYBOT_DB is required for the postgres driver")
		}
		return c.DB, nil
	default:
		return "", fmt.Errorf("unknown database driver: %q", c.DBDriver)
	}
}

// DefaultDBPath resolves the SQLite file path:
// $XDG_DATA_HOME/studybot/studybot.db, else ~/.local/share/studybot/studybot.db.
func DefaultDBPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "studybot", "studybot.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
