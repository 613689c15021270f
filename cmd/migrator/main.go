package main

import (
	"errors"
	"fmt"

	"movieguide/internal/core/config"
	"movieguide/internal/core/database"
	"movieguide/internal/core/logging"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Database migration failed")
	}
	logging.Info().Msg("Database migration completed successfully!")
}

// run menerapkan migrasi yang di-embed dari db/migrations. Store selalu ditutup sebelum kembali.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	store, err := database.NewDBStore(cfg.Database.Driver, cfg.Database.URL, 1)
	if err != nil {
		return err
	}
	defer store.Close()

	logging.Info().Msg("Running database migrations...")
	return store.Migrate()
}
