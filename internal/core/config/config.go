// Package config memuat konfigurasi aplikasi: default, file YAML opsional, lalu environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar menimpa lokasi file konfigurasi.
const PathEnvVar = "CONFIG_PATH"

var defaultPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Session  SessionConfig  `koanf:"session"`
	Stats    StatsConfig    `koanf:"stats"`
	Log      LogConfig      `koanf:"log"`
	Worker   WorkerConfig   `koanf:"worker"`
}

type ServerConfig struct {
	Port           string        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
}

type DatabaseConfig struct {
	URL          string `koanf:"url"`
	Driver       string `koanf:"driver"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type TMDBConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

type SessionConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type StatsConfig struct {
	RecentLimit int `koanf:"recent_limit"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type WorkerConfig struct {
	SessionPurgeSchedule string `koanf:"session_purge_schedule"`
	BackfillSchedule     string `koanf:"backfill_schedule"`
	BackfillBatch        int    `koanf:"backfill_batch"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"https://*", "http://*"},
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    time.Minute,
		},
		Database: DatabaseConfig{
			Driver:       "pgx",
			MaxOpenConns: 10,
			AutoMigrate:  false,
		},
		TMDB: TMDBConfig{
			BaseURL:       "https://api.themoviedb.org/3",
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    300 * time.Millisecond,
		},
		Session: SessionConfig{TTL: 30 * 24 * time.Hour},
		Stats:   StatsConfig{RecentLimit: 5},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Worker: WorkerConfig{
			SessionPurgeSchedule: "0 0 * * * *",
			BackfillSchedule:     "0 0 */12 * * *",
			BackfillBatch:        50,
		},
	}
}

// envMappings memetakan nama environment variable ke path koanf.
var envMappings = map[string]string{
	"port":                          "server.port",
	"allowed_origins":               "server.allowed_origins",
	"database_url":                  "database.url",
	"database_driver":               "database.driver",
	"database_max_open_conns":       "database.max_open_conns",
	"database_auto_migrate":         "database.auto_migrate",
	"tmdb_api_key":                  "tmdb.api_key",
	"tmdb_base_url":                 "tmdb.base_url",
	"tmdb_timeout":                  "tmdb.timeout",
	"tmdb_retry_attempts":           "tmdb.retry_attempts",
	"tmdb_retry_delay":              "tmdb.retry_delay",
	"session_ttl":                   "session.ttl",
	"stats_recent_limit":            "stats.recent_limit",
	"log_level":                     "log.level",
	"log_format":                    "log.format",
	"log_file":                      "log.file",
	"log_max_size_mb":               "log.max_size_mb",
	"log_max_backups":               "log.max_backups",
	"log_max_age_days":              "log.max_age_days",
	"worker_session_purge_schedule": "worker.session_purge_schedule",
	"worker_backfill_schedule":      "worker.backfill_schedule",
	"worker_backfill_batch":         "worker.backfill_batch",
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load memuat .env (jika ada), default, file konfigurasi, lalu environment variable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.TMDB.APIKey = strings.TrimSpace(cfg.TMDB.APIKey)
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	for _, p := range defaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate hanya memeriksa nilai struktural. API key TMDB dan URL database boleh kosong;
// ketiadaannya dilaporkan sebagai error 500 saat pertama kali dipakai.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port must be set"))
	}
	switch c.Database.Driver {
	case "pgx", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.TMDB.RetryAttempts < 1 {
		errs = append(errs, errors.New("tmdb.retry_attempts must be at least 1"))
	}
	if c.Stats.RecentLimit < 1 {
		errs = append(errs, errors.New("stats.recent_limit must be at least 1"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	return errors.Join(errs...)
}
