package tracker

import (
	"context"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/logging"
	"movieguide/internal/core/metrics"
	"movieguide/internal/core/models"
)

// MarkMovieWatched menandai film sebagai sudah ditonton.
// Record yang sudah ada tidak pernah ditimpa; panggilan kedua gagal dengan ErrAlreadyWatched.
func (s *Service) MarkMovieWatched(ctx context.Context, username string, movieID int64) (*models.WatchedMovie, error) {
	user, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetOrFetchMovie(ctx, movieID, true); err != nil {
		return nil, err
	}

	watched := models.WatchedMovie{UserID: user.ID, MovieID: movieID, WatchedAt: s.now().UTC()}
	inserted, err := s.store.InsertWatchedMovie(ctx, watched)
	if err != nil {
		metrics.WatchedMarks.WithLabelValues("movie", "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "Failed to mark movie as watched", err)
	}
	if !inserted {
		metrics.WatchedMarks.WithLabelValues("movie", "conflict").Inc()
		return nil, apperr.Wrap(apperr.Conflict, "Movie already marked as watched", ErrAlreadyWatched)
	}
	metrics.WatchedMarks.WithLabelValues("movie", "inserted").Inc()
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Int64("movie_id", movieID).Msg("Movie marked as watched")
	return &watched, nil
}

// IsMovieWatched tidak pernah gagal: user tidak dikenal atau error lookup dianggap false.
func (s *Service) IsMovieWatched(ctx context.Context, username string, movieID int64) bool {
	if username == "" || s.store == nil {
		return false
	}
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("watched lookup: user query failed")
		return false
	}
	if user == nil {
		return false
	}
	ok, err := s.store.WatchedMovieExists(ctx, user.ID, movieID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("movie_id", movieID).Msg("watched lookup failed")
		return false
	}
	return ok
}

// MarkEpisodeWatched menandai satu episode. Episode harus ada di show yang di-resolve.
func (s *Service) MarkEpisodeWatched(ctx context.Context, username string, showID int64, seasonNumber, episodeNumber int) (*models.WatchedEpisode, error) {
	user, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	show, err := s.GetOrFetchShow(ctx, showID, true)
	if err != nil {
		return nil, err
	}
	season, ok := show.Season(seasonNumber)
	if !ok {
		return nil, apperr.New(apperr.Validation, "Season not found")
	}
	if _, ok := season.Episode(episodeNumber); !ok {
		return nil, apperr.New(apperr.Validation, "Episode not found")
	}

	watched := models.WatchedEpisode{
		UserID:        user.ID,
		ShowID:        showID,
		SeasonNumber:  seasonNumber,
		EpisodeNumber: episodeNumber,
		WatchedAt:     s.now().UTC(),
	}
	inserted, err := s.store.InsertWatchedEpisode(ctx, watched)
	if err != nil {
		metrics.WatchedMarks.WithLabelValues("episode", "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "Failed to mark episode as watched", err)
	}
	if !inserted {
		metrics.WatchedMarks.WithLabelValues("episode", "conflict").Inc()
		return nil, apperr.Wrap(apperr.Conflict, "Episode already marked as watched", ErrAlreadyWatched)
	}
	metrics.WatchedMarks.WithLabelValues("episode", "inserted").Inc()
	return &watched, nil
}

// MarkSeasonWatched menandai semua episode season yang belum ditonton dalam satu transaksi.
// Mengembalikan hanya record yang baru dibuat.
func (s *Service) MarkSeasonWatched(ctx context.Context, username string, showID int64, seasonNumber int) ([]models.WatchedEpisode, error) {
	user, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	show, err := s.GetOrFetchShow(ctx, showID, true)
	if err != nil {
		return nil, err
	}
	season, ok := show.Season(seasonNumber)
	if !ok {
		return nil, apperr.New(apperr.Validation, "Season not found")
	}
	if len(season.Episodes) == 0 {
		return nil, apperr.New(apperr.Validation, "Season has no episodes")
	}

	now := s.now().UTC()
	records := make([]models.WatchedEpisode, 0, len(season.Episodes))
	for _, ep := range season.Episodes {
		records = append(records, models.WatchedEpisode{
			UserID:        user.ID,
			ShowID:        showID,
			SeasonNumber:  seasonNumber,
			EpisodeNumber: ep.EpisodeNumber,
			WatchedAt:     now,
		})
	}
	inserted, err := s.store.InsertWatchedEpisodes(ctx, records)
	if err != nil {
		metrics.WatchedMarks.WithLabelValues("season", "error").Inc()
		return nil, apperr.Wrap(apperr.Storage, "Failed to mark season as watched", err)
	}
	if len(inserted) == 0 {
		metrics.WatchedMarks.WithLabelValues("season", "conflict").Inc()
		return nil, apperr.Wrap(apperr.Conflict, "Season already marked as watched", ErrAlreadyWatched)
	}
	metrics.WatchedMarks.WithLabelValues("season", "inserted").Inc()
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Int64("show_id", showID).Int("season", seasonNumber).
		Int("episodes", len(inserted)).Msg("Season marked as watched")
	return inserted, nil
}

// WatchedEpisodes mengembalikan episode show yang sudah ditonton user.
func (s *Service) WatchedEpisodes(ctx context.Context, username string, showID int64) ([]models.WatchedEpisode, error) {
	user, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	watched, err := s.store.ListWatchedEpisodesForShow(ctx, user.ID, showID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Failed to load watched episodes", err)
	}
	return watched, nil
}

// IsSeasonFullyWatched bernilai true jika season punya minimal satu episode dan semuanya sudah ditonton.
func IsSeasonFullyWatched(season models.Season, watched []models.WatchedEpisode) bool {
	if len(season.Episodes) == 0 {
		return false
	}
	seen := make(map[models.EpisodeKey]struct{}, len(watched))
	for _, w := range watched {
		seen[w.Key()] = struct{}{}
	}
	for _, ep := range season.Episodes {
		if _, ok := seen[models.EpisodeKey{SeasonNumber: season.SeasonNumber, EpisodeNumber: ep.EpisodeNumber}]; !ok {
			return false
		}
	}
	return true
}
