package tracker

import (
	"context"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/logging"
)

// BackfillResult merangkum satu putaran backfill.
type BackfillResult struct {
	Movies int
	Shows  int
	Failed int
}

// BackfillMissingMetadata mengambil metadata untuk record tontonan yang film/show-nya belum tersimpan.
// Hanya menyisipkan; baris yang sudah ada tidak pernah diperbarui. ID yang gagal dicatat
// sehingga putaran berikutnya mendahulukan ID lain.
func (s *Service) BackfillMissingMetadata(ctx context.Context, batch int) (BackfillResult, error) {
	var result BackfillResult
	if err := s.requireStore(); err != nil {
		return result, err
	}
	if err := s.requireProvider(); err != nil {
		return result, err
	}
	if batch <= 0 {
		batch = 50
	}

	movieIDs, err := s.store.ListMissingMovieIDs(ctx, batch)
	if err != nil {
		return result, apperr.Wrap(apperr.Storage, "Failed to list missing movies", err)
	}
	for _, id := range movieIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := s.GetOrFetchMovie(ctx, id, true); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("movie_id", id).Msg("backfill: movie fetch failed")
			s.recordBackfillFailure(ctx, "movie", id)
			result.Failed++
			continue
		}
		result.Movies++
	}

	showIDs, err := s.store.ListMissingShowIDs(ctx, batch)
	if err != nil {
		return result, apperr.Wrap(apperr.Storage, "Failed to list missing shows", err)
	}
	for _, id := range showIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if _, err := s.GetOrFetchShow(ctx, id, true); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("show_id", id).Msg("backfill: show fetch failed")
			s.recordBackfillFailure(ctx, "show", id)
			result.Failed++
			continue
		}
		result.Shows++
	}
	return result, nil
}

func (s *Service) recordBackfillFailure(ctx context.Context, mediaType string, id int64) {
	if err := s.store.RecordBackfillFailure(ctx, mediaType, id, s.now()); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("media_type", mediaType).Int64("media_id", id).Msg("backfill: could not record failure")
	}
}
