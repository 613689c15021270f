package tracker

import (
	"context"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/logging"
	"movieguide/internal/core/metrics"
	"movieguide/internal/core/models"
	"movieguide/internal/tmdb"
)

// GetOrFetchMovie mengembalikan film dari database, atau dari TMDB jika belum ada.
// Hasil TMDB hanya disimpan ketika persistOnFetch bernilai true.
func (s *Service) GetOrFetchMovie(ctx context.Context, movieID int64, persistOnFetch bool) (*models.Movie, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	movie, err := s.store.FindMovie(ctx, movieID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Failed to load movie", err)
	}
	if movie != nil {
		metrics.MetadataLookups.WithLabelValues("movie", "store").Inc()
		return movie, nil
	}

	if err := s.requireProvider(); err != nil {
		return nil, err
	}
	details, err := s.provider.MovieDetails(ctx, movieID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("movie_id", movieID).Msg("TMDB movie lookup failed")
		return nil, upstreamError("Failed to fetch movie from TMDB", err)
	}
	metrics.MetadataLookups.WithLabelValues("movie", "tmdb").Inc()

	movie = movieFromTMDB(movieID, details)
	if persistOnFetch {
		if err := s.store.InsertMovie(ctx, *movie); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "Failed to save movie", err)
		}
	}
	return movie, nil
}

// GetOrFetchShow sama seperti GetOrFetchMovie untuk show beserta semua season dan episodenya.
func (s *Service) GetOrFetchShow(ctx context.Context, showID int64, persistOnFetch bool) (*models.Show, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	show, err := s.store.FindShow(ctx, showID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Failed to load show", err)
	}
	if show != nil {
		metrics.MetadataLookups.WithLabelValues("show", "store").Inc()
		return show, nil
	}

	if err := s.requireProvider(); err != nil {
		return nil, err
	}
	details, seasons, err := s.provider.ShowWithSeasons(ctx, showID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("show_id", showID).Msg("TMDB show lookup failed")
		return nil, upstreamError("Failed to fetch show from TMDB", err)
	}
	metrics.MetadataLookups.WithLabelValues("show", "tmdb").Inc()

	show = showFromTMDB(showID, details, seasons)
	if persistOnFetch {
		if err := s.store.InsertShow(ctx, *show); err != nil {
			return nil, apperr.Wrap(apperr.Storage, "Failed to save show", err)
		}
	}
	return show, nil
}

func movieFromTMDB(movieID int64, d *tmdb.MovieDetails) *models.Movie {
	return &models.Movie{
		ID:          movieID,
		Title:       d.Title,
		Overview:    d.Overview,
		Genres:      tmdb.GenreNames(d.Genres),
		ReleaseDate: d.ReleaseDate,
		PosterPath:  d.PosterPath,
		Runtime:     d.Runtime,
		Status:      d.Status,
		Tagline:     d.Tagline,
	}
}

func showFromTMDB(showID int64, d *tmdb.ShowDetails, seasons []tmdb.SeasonDetails) *models.Show {
	summaries := make(map[int]tmdb.SeasonSummary, len(d.Seasons))
	for _, sum := range d.Seasons {
		summaries[sum.SeasonNumber] = sum
	}
	// Episode tanpa runtime memakai runtime umum show jika ada.
	fallbackRuntime := 0
	if len(d.EpisodeRunTime) > 0 {
		fallbackRuntime = d.EpisodeRunTime[0]
	}

	show := &models.Show{
		ID:               showID,
		Name:             d.Name,
		Overview:         d.Overview,
		Genres:           tmdb.GenreNames(d.Genres),
		NumberOfEpisodes: d.NumberOfEpisodes,
		NumberOfSeasons:  d.NumberOfSeasons,
		PosterPath:       d.PosterPath,
		Status:           d.Status,
		Tagline:          d.Tagline,
		Seasons:          make([]models.Season, 0, len(seasons)),
	}
	for _, sd := range seasons {
		sum := summaries[sd.SeasonNumber]
		season := models.Season{
			ShowID:       showID,
			SeasonNumber: sd.SeasonNumber,
			Name:         firstNonEmpty(sd.Name, sum.Name),
			Overview:     firstNonEmpty(sd.Overview, sum.Overview),
			EpisodeCount: len(sd.Episodes),
			AirDate:      firstNonEmpty(sd.AirDate, sum.AirDate),
			Episodes:     make([]models.Episode, 0, len(sd.Episodes)),
		}
		for _, ed := range sd.Episodes {
			runtime := ed.Runtime
			if runtime == 0 {
				runtime = fallbackRuntime
			}
			season.Episodes = append(season.Episodes, models.Episode{
				ShowID:        showID,
				SeasonNumber:  sd.SeasonNumber,
				EpisodeNumber: ed.EpisodeNumber,
				Name:          ed.Name,
				Overview:      ed.Overview,
				Runtime:       runtime,
			})
		}
		show.Seasons = append(show.Seasons, season)
	}
	return show
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
