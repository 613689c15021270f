package database

import (
	"errors"
	"fmt"

	"movieguide/db"
	"movieguide/internal/core/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // Driver untuk PostgreSQL
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate menerapkan semua migrasi yang belum dijalankan.
// SQLite memakai koneksi store yang sama; PostgreSQL membuka koneksi sendiri dari URL.
func (s *DBStore) Migrate() error {
	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var m *migrate.Migrate
	if s.db.DriverName() == "sqlite3" {
		driver, err := sqlite3.WithInstance(s.db.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("failed to create sqlite migrate driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", driver)
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}
		// m.Close() akan menutup pool milik store, jadi tidak dipanggil di sini.
	} else {
		m, err = migrate.NewWithSourceInstance("iofs", src, s.url)
		if err != nil {
			return fmt.Errorf("failed to create migrate instance: %w", err)
		}
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, dirty, _ := m.Version()
	logging.Info().Uint("version", version).Bool("dirty", dirty).Msg("Database migration completed")
	return nil
}
