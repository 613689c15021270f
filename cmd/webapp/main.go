package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movieguide/internal/bootstrap"
	"movieguide/internal/core/config"
	"movieguide/internal/core/logging"
	"movieguide/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Application struct {
	Service *tracker.Service
	Config  *config.Config
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Could not load configuration")
	}
	bootstrap.InitLogging(cfg)

	deps, err := bootstrap.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Could not connect to the database")
	}
	defer deps.Close()

	app := &Application{Service: deps.Service, Config: cfg}

	logging.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
	if err := app.serve(); err != nil {
		logging.Fatal().Err(err).Msg("Could not start server")
	}
}

// routes mengatur router beserta middleware.
func (app *Application) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", app.loginHandler)
		r.Post("/register", app.registerHandler)
		r.Post("/logout", app.logoutHandler)
	})

	r.Route("/detail/{id}", func(r chi.Router) {
		r.Get("/movie", app.movieDetailHandler)
		r.Post("/movie", app.markMovieHandler)
		r.Get("/show", app.showDetailHandler)
		r.Post("/show", app.markEpisodeHandler)
		r.Post("/show/season", app.markSeasonHandler)
	})

	r.Get("/search", app.searchHandler)
	r.Get("/stats", app.statsHandler)
	r.Get("/healthz", app.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.errorJSON(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.errorJSON(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

// serve memulai server HTTP dan berhenti dengan rapi saat menerima SIGINT/SIGTERM.
func (app *Application) serve() error {
	srv := &http.Server{
		Addr:         ":" + app.Config.Server.Port,
		Handler:      app.routes(),
		IdleTimeout:  app.Config.Server.IdleTimeout,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		logging.Info().Str("signal", s.String()).Msg("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	logging.Info().Msg("Server stopped")
	return nil
}
