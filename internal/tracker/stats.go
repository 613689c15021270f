package tracker

import (
	"context"
	"sort"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/models"
)

// ComputeStats menghitung statistik tontonan user. Operasi baca murni.
func (s *Service) ComputeStats(ctx context.Context, username string) (*models.Stats, error) {
	user, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	movies, err := s.store.ListWatchedMovies(ctx, user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Failed to load watched movies", err)
	}
	episodes, err := s.store.ListWatchedEpisodes(ctx, user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Failed to load watched episodes", err)
	}
	stats := Aggregate(movies, episodes, s.recentLimit)
	return &stats, nil
}

// Aggregate menghitung Stats dari record tontonan.
// Record tanpa metadata tetap dihitung dan tampil di daftar terbaru, tapi tidak menambah total waktu.
// Daftar terbaru diurutkan watched_at menurun, seri dipecah dengan ID menaik.
func Aggregate(movies []models.WatchedMovieDetail, episodes []models.WatchedEpisodeDetail, n int) models.Stats {
	if n < 0 {
		n = 0
	}
	stats := models.Stats{
		MoviesWatched:   len(movies),
		EpisodesWatched: len(episodes),
		RecentMovies:    []models.RecentMovie{},
		RecentEpisodes:  []models.RecentEpisode{},
	}

	for _, m := range movies {
		if m.Resolved {
			stats.TotalMovieTime += m.Runtime
		}
	}
	shows := make(map[int64]struct{})
	for _, e := range episodes {
		shows[e.ShowID] = struct{}{}
		if e.Resolved {
			stats.TotalShowTime += e.Runtime
		}
	}
	stats.ShowsWatched = len(shows)

	sortedMovies := append([]models.WatchedMovieDetail(nil), movies...)
	sort.Slice(sortedMovies, func(i, j int) bool {
		a, b := sortedMovies[i], sortedMovies[j]
		if !a.WatchedAt.Equal(b.WatchedAt) {
			return a.WatchedAt.After(b.WatchedAt)
		}
		return a.MovieID < b.MovieID
	})
	for i := 0; i < len(sortedMovies) && i < n; i++ {
		m := sortedMovies[i]
		stats.RecentMovies = append(stats.RecentMovies, models.RecentMovie{
			ID:         m.MovieID,
			Title:      m.Title,
			PosterPath: m.PosterPath,
			WatchedAt:  m.WatchedAt,
			Runtime:    m.Runtime,
		})
	}

	sortedEpisodes := append([]models.WatchedEpisodeDetail(nil), episodes...)
	sort.Slice(sortedEpisodes, func(i, j int) bool {
		a, b := sortedEpisodes[i], sortedEpisodes[j]
		if !a.WatchedAt.Equal(b.WatchedAt) {
			return a.WatchedAt.After(b.WatchedAt)
		}
		if a.ShowID != b.ShowID {
			return a.ShowID < b.ShowID
		}
		if a.SeasonNumber != b.SeasonNumber {
			return a.SeasonNumber < b.SeasonNumber
		}
		return a.EpisodeNumber < b.EpisodeNumber
	})
	for i := 0; i < len(sortedEpisodes) && i < n; i++ {
		e := sortedEpisodes[i]
		stats.RecentEpisodes = append(stats.RecentEpisodes, models.RecentEpisode{
			ShowID:         e.ShowID,
			ShowName:       e.ShowName,
			ShowPosterPath: e.ShowPosterPath,
			SeasonNumber:   e.SeasonNumber,
			EpisodeNumber:  e.EpisodeNumber,
			EpisodeName:    e.EpisodeName,
			WatchedAt:      e.WatchedAt,
		})
	}
	return stats
}
