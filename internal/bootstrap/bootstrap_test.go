package bootstrap

import (
	"context"
	"testing"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/config"
)

func TestNewWithoutDatabaseOrKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("CONFIG_PATH", "does-not-exist.yaml")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	deps, err := New(cfg)
	if err != nil {
		t.Fatalf("New should not fail without database or key: %v", err)
	}
	defer deps.Close()

	if deps.Store != nil {
		t.Fatal("store should be nil without DATABASE_URL")
	}
	if deps.TMDB.Configured() {
		t.Fatal("tmdb client should not be configured")
	}
	_, err = deps.Service.ComputeStats(context.Background(), "alice")
	if apperr.KindOf(err) != apperr.Configuration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewWithSQLite(t *testing.T) {
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("CONFIG_PATH", "does-not-exist.yaml")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	deps, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer deps.Close()

	if err := deps.Service.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, err := deps.Service.Register(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("migrations should have run: %v", err)
	}
}
