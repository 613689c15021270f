package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/logging"
	"movieguide/internal/core/validation"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

type envelope map[string]any

func (app *Application) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Error encoding JSON")
	}
}

func (app *Application) errorJSON(w http.ResponseWriter, status int, message string) {
	app.writeJSON(w, status, envelope{"success": false, "error": message})
}

// handleError menulis error sebagai envelope. upstreamStatus menimpa status default
// untuk kegagalan TMDB; 0 berarti pakai default 502.
func (app *Application) handleError(w http.ResponseWriter, r *http.Request, err error, fallback string, upstreamStatus int) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if kind == apperr.Upstream && upstreamStatus != 0 {
		status = upstreamStatus
	}

	l := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("kind", string(kind)).Msg(fallback)
	} else {
		l.Debug().Err(err).Str("kind", string(kind)).Msg("request rejected")
	}
	app.errorJSON(w, status, apperr.Message(err, fallback))
}

// decodeJSON membaca body ke dst lalu memvalidasinya. Body kosong dianggap objek kosong.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Wrap(apperr.Validation, "Invalid JSON body", err)
	}
	if err := validation.Struct(dst); err != nil {
		return apperr.Wrap(apperr.Validation, err.Error(), err)
	}
	return nil
}

// idParam membaca {id} sebagai ID TMDB positif.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
