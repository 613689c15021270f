package tracker

import (
	"context"
	"strings"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/logging"
	"movieguide/internal/core/models"
)

// Search meneruskan pencarian ke TMDB. mediaType kosong berarti "movie";
// nilai selain "movie" mencari show. media_type hasil selalu sama dengan mediaType.
func (s *Service) Search(ctx context.Context, query, mediaType string) (*models.SearchPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.Validation, "Query parameter is required")
	}
	if mediaType == "" {
		mediaType = "movie"
	}
	if err := s.requireProvider(); err != nil {
		return nil, err
	}

	resp, err := s.provider.Search(ctx, query, mediaType)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("TMDB search failed")
		return nil, upstreamError("Failed to search", err)
	}

	page := &models.SearchPage{
		Results:      make([]models.SearchResult, 0, len(resp.Results)),
		TotalResults: resp.TotalResults,
	}
	for _, item := range resp.Results {
		page.Results = append(page.Results, models.SearchResult{
			ID:           item.ID,
			Title:        item.Title,
			Name:         item.Name,
			Overview:     item.Overview,
			PosterPath:   item.PosterPath,
			ReleaseDate:  item.ReleaseDate,
			FirstAirDate: item.FirstAirDate,
			VoteAverage:  item.VoteAverage,
			MediaType:    mediaType,
		})
	}
	return page, nil
}
