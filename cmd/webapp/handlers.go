package main

import (
	"net/http"
	"strings"

	"movieguide/internal/core/apperr"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type logoutRequest struct {
	Token string `json:"token" validate:"required"`
}

type markMovieRequest struct {
	Username string `json:"username" validate:"required"`
}

type markEpisodeRequest struct {
	Username      string `json:"username" validate:"required"`
	SeasonNumber  *int   `json:"season_number" validate:"required,min=0"`
	EpisodeNumber *int   `json:"episode_number" validate:"required,min=0"`
}

type markSeasonRequest struct {
	Username     string `json:"username" validate:"required"`
	SeasonNumber *int   `json:"season_number" validate:"required,min=0"`
}

// Auth

func (app *Application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.errorJSON(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, session, err := app.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		app.handleError(w, r, err, "Login failed. Please try again.", 0)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{
		"success":    true,
		"user":       envelope{"username": user.Username, "id": user.ID},
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

func (app *Application) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.handleError(w, r, err, "Invalid request", 0)
		return
	}

	user, err := app.Service.Register(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict {
			app.errorJSON(w, http.StatusConflict, apperr.Message(err, "Username already taken"))
			return
		}
		app.handleError(w, r, err, "Registration failed. Please try again.", 0)
		return
	}
	app.writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"user":    envelope{"username": user.Username, "id": user.ID},
	})
}

func (app *Application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.handleError(w, r, err, "Invalid request", 0)
		return
	}
	if err := app.Service.Logout(r.Context(), req.Token); err != nil {
		app.handleError(w, r, err, "Logout failed", 0)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true})
}

// Movie

func (app *Application) movieDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		app.errorJSON(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	movie, watched, err := app.Service.MovieDetail(r.Context(), id, r.URL.Query().Get("username"))
	if err != nil {
		app.handleError(w, r, err, "Failed to fetch movie details", 0)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "data": movie, "isWatched": watched})
}

func (app *Application) markMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		app.errorJSON(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}
	var req markMovieRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.errorJSON(w, http.StatusBadRequest, "Username is required")
		return
	}

	watched, err := app.Service.MarkMovieWatched(r.Context(), req.Username, id)
	if err != nil {
		app.handleError(w, r, err, "Failed to mark movie as watched", http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Movie marked as watched", "data": watched})
}

// Show

func (app *Application) showDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		app.errorJSON(w, http.StatusBadRequest, "Invalid show ID")
		return
	}

	show, err := app.Service.ShowDetail(r.Context(), id, r.URL.Query().Get("username"))
	if err != nil {
		app.handleError(w, r, err, "Failed to fetch show details", 0)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "data": show})
}

func (app *Application) markEpisodeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		app.errorJSON(w, http.StatusBadRequest, "Invalid show ID")
		return
	}
	var req markEpisodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.handleError(w, r, err, "Invalid request", 0)
		return
	}

	watched, err := app.Service.MarkEpisodeWatched(r.Context(), req.Username, id, *req.SeasonNumber, *req.EpisodeNumber)
	if err != nil {
		app.handleError(w, r, err, "Failed to mark episode as watched", http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Episode marked as watched", "data": watched})
}

func (app *Application) markSeasonHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		app.errorJSON(w, http.StatusBadRequest, "Invalid show ID")
		return
	}
	var req markSeasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		app.handleError(w, r, err, "Invalid request", 0)
		return
	}

	watched, err := app.Service.MarkSeasonWatched(r.Context(), req.Username, id, *req.SeasonNumber)
	if err != nil {
		app.handleError(w, r, err, "Failed to mark season as watched", http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Season marked as watched", "data": watched})
}

// Search, stats, health

func (app *Application) searchHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := app.Service.Search(r.Context(), query.Get("query"), query.Get("type"))
	if err != nil {
		app.handleError(w, r, err, "Failed to search", http.StatusInternalServerError)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "data": page.Results, "total_results": page.TotalResults})
}

func (app *Application) statsHandler(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		app.errorJSON(w, http.StatusBadRequest, "Username is required")
		return
	}

	stats, err := app.Service.ComputeStats(r.Context(), username)
	if err != nil {
		app.handleError(w, r, err, "Failed to compute stats", 0)
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "data": stats})
}

func (app *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Service.Ping(r.Context()); err != nil {
		app.errorJSON(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	app.writeJSON(w, http.StatusOK, envelope{"success": true, "status": "ok"})
}
