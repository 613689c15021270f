package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"movieguide/internal/core/config"
	"movieguide/internal/core/database"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	t.Setenv(config.PathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATABASE_URL", "")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("run() error = %v, want DATABASE_URL error", err)
	}
}

func TestRunAppliesMigrations(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "movieguide.db")
	t.Setenv(config.PathEnvVar, filepath.Join(dir, "missing.yaml"))
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", dbPath)

	if err := run(); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	// Kedua kali tidak ada migrasi baru; run tetap sukses.
	if err := run(); err != nil {
		t.Fatalf("second run() error = %v", err)
	}

	store, err := database.NewDBStore("sqlite3", dbPath, 1)
	if err != nil {
		t.Fatalf("NewDBStore() error = %v", err)
	}
	defer store.Close()
	if _, err := store.ListMissingMovieIDs(context.Background(), 1); err != nil {
		t.Fatalf("schema not migrated: %v", err)
	}
}
