package tracker

import (
	"context"

	"movieguide/internal/core/logging"
	"movieguide/internal/core/models"
)

// MovieDetail adalah jalur baca halaman film: tidak menyimpan apa pun.
func (s *Service) MovieDetail(ctx context.Context, movieID int64, username string) (*models.Movie, bool, error) {
	movie, err := s.GetOrFetchMovie(ctx, movieID, false)
	if err != nil {
		return nil, false, err
	}
	return movie, s.IsMovieWatched(ctx, username, movieID), nil
}

// ShowDetail adalah jalur baca halaman show. Setiap episode diberi tanda watched;
// kegagalan resolusi user hanya berarti semua episode belum ditonton.
func (s *Service) ShowDetail(ctx context.Context, showID int64, username string) (*models.Show, error) {
	show, err := s.GetOrFetchShow(ctx, showID, false)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return show, nil
	}

	watched, err := s.WatchedEpisodes(ctx, username, showID)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("username", username).Msg("show detail: watched state unavailable")
		return show, nil
	}
	seen := make(map[models.EpisodeKey]struct{}, len(watched))
	for _, w := range watched {
		seen[w.Key()] = struct{}{}
	}
	for i := range show.Seasons {
		season := &show.Seasons[i]
		for j := range season.Episodes {
			_, ok := seen[models.EpisodeKey{SeasonNumber: season.SeasonNumber, EpisodeNumber: season.Episodes[j].EpisodeNumber}]
			season.Episodes[j].Watched = ok
		}
	}
	return show, nil
}
