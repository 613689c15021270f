package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movieguide/internal/bootstrap"
	"movieguide/internal/core/config"
	"movieguide/internal/core/logging"
	"movieguide/internal/tracker"

	"github.com/robfig/cron/v3"
)

// jobTimeout membatasi durasi satu putaran job.
const jobTimeout = 10 * time.Minute

type AppConfig struct {
	Service       *tracker.Service
	BackfillBatch int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Could not load configuration")
	}
	bootstrap.InitLogging(cfg)

	if cfg.Database.URL == "" {
		logging.Fatal().Msg("DATABASE_URL must be set")
	}
	deps, err := bootstrap.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Could not connect to the database")
	}
	defer deps.Close()

	app := AppConfig{Service: deps.Service, BackfillBatch: cfg.Worker.BackfillBatch}

	logging.Info().Msg("Starting cron job scheduler...")
	c := cron.New(cron.WithSeconds())

	if _, err := c.AddFunc(cfg.Worker.SessionPurgeSchedule, app.runSessionPurge); err != nil {
		logging.Fatal().Err(err).Str("schedule", cfg.Worker.SessionPurgeSchedule).Msg("Could not add session purge job")
	}
	if _, err := c.AddFunc(cfg.Worker.BackfillSchedule, app.runBackfill); err != nil {
		logging.Fatal().Err(err).Str("schedule", cfg.Worker.BackfillSchedule).Msg("Could not add backfill job")
	}

	logging.Info().Msg("--- Running initial worker jobs ---")
	app.runSessionPurge()
	app.runBackfill()
	logging.Info().Msg("--- Initial worker jobs finished ---")

	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("Stopping scheduler, waiting for running jobs")
	<-c.Stop().Done()
}

func (app *AppConfig) runSessionPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := app.Service.PurgeExpiredSessions(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Could not purge expired sessions")
		return
	}
	logging.Info().Int64("deleted", n).Msg("Expired sessions purged")
}

func (app *AppConfig) runBackfill() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logging.Info().Msg("--- Running metadata backfill ---")
	result, err := app.Service.BackfillMissingMetadata(ctx, app.BackfillBatch)
	if err != nil {
		logging.Error().Err(err).Msg("Metadata backfill failed")
		return
	}
	logging.Info().
		Int("movies", result.Movies).
		Int("shows", result.Shows).
		Int("failed", result.Failed).
		Msg("--- Metadata backfill finished ---")
}
