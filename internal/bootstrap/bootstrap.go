// Package bootstrap merakit dependensi bersama untuk webapp dan worker.
package bootstrap

import (
	"fmt"

	"movieguide/internal/core/config"
	"movieguide/internal/core/database"
	"movieguide/internal/core/logging"
	"movieguide/internal/tmdb"
	"movieguide/internal/tracker"
)

// Deps adalah dependensi proses. Store bernilai nil jika database.url kosong.
type Deps struct {
	Store   database.Store
	TMDB    *tmdb.Client
	Service *tracker.Service
}

// InitLogging menerapkan konfigurasi log.
func InitLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

// New membuka pool database sekali untuk seluruh proses dan membangun Service.
// URL database atau API key TMDB yang kosong tidak menggagalkan startup.
func New(cfg *config.Config) (*Deps, error) {
	deps := &Deps{}

	if cfg.Database.URL == "" {
		logging.Warn().Msg("DATABASE_URL is not set; requests that need storage will fail")
	} else {
		store, err := database.NewDBStore(cfg.Database.Driver, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate || cfg.Database.Driver == "sqlite3" {
			if err := store.Migrate(); err != nil {
				store.Close()
				return nil, fmt.Errorf("auto-migrate: %w", err)
			}
		}
		deps.Store = store
	}

	if cfg.TMDB.APIKey == "" {
		logging.Warn().Msg("TMDB_API_KEY is not set; metadata lookups will fail")
	}
	deps.TMDB = tmdb.NewClient(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithRetry(cfg.TMDB.RetryAttempts, cfg.TMDB.RetryDelay),
	)

	deps.Service = tracker.NewService(deps.Store, deps.TMDB,
		tracker.WithRecentLimit(cfg.Stats.RecentLimit),
		tracker.WithSessionTTL(cfg.Session.TTL),
	)
	return deps, nil
}

// Close menutup pool database jika ada.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
