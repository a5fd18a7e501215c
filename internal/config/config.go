package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string   `env:"PORT" envDefault:":3000"`
	StaticDir   string   `env:"STATIC_DIR" envDefault:"static"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
}

// DatabaseConfig selects the SQL driver and its DSN
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DATABASE_DSN" envDefault:"games.db"`
}

// RedisConfig holds Redis connection configuration.
// An empty URL disables the change-event stream.
type RedisConfig struct {
	URL    string `env:"REDIS_URL"`
	Stream string `env:"GAME_EVENTS_STREAM" envDefault:"games.changes"`
}

// ImportConfig controls the catalog populate flow
type ImportConfig struct {
	// Empty means the built-in catalog URLs
	URLs    []string      `env:"CATALOG_URLS"`
	Persist bool          `env:"IMPORT_PERSIST" envDefault:"false"`
	Timeout time.Duration `env:"IMPORT_TIMEOUT" envDefault:"30s"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Import   ImportConfig
	Log      LogConfig
}

// Load reads the given .env files (default ".env"; missing files are ignored)
// and then parses configuration from the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Server.Port = normalizeAddr(cfg.Server.Port)
	cfg.Import.URLs = trimAll(cfg.Import.URLs)
	cfg.Server.CORSOrigins = trimAll(cfg.Server.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values the environment parser cannot
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite3)", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}

	if c.Import.Timeout <= 0 {
		return fmt.Errorf("IMPORT_TIMEOUT must be positive, got %s", c.Import.Timeout)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q (want text or json)", c.Log.Format)
	}

	return nil
}

// normalizeAddr accepts a bare port number ("8080") as well as a listen address
func normalizeAddr(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
