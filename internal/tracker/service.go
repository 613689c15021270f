// Package tracker berisi logika inti: resolusi user, cache metadata, status tontonan, dan statistik.
package tracker

import (
	"context"
	"errors"
	"time"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/database"
	"movieguide/internal/tmdb"
)

//go:generate mockgen -destination=mock_provider_test.go -package=tracker . Provider

// Provider adalah sumber metadata eksternal (TMDB).
type Provider interface {
	Configured() bool
	MovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
	ShowWithSeasons(ctx context.Context, showID int64) (*tmdb.ShowDetails, []tmdb.SeasonDetails, error)
	Search(ctx context.Context, query, mediaType string) (*tmdb.SearchResponse, error)
}

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyWatched        = errors.New("already watched")
	ErrStoreNotConfigured    = errors.New("database not configured")
	ErrProviderNotConfigured = errors.New("tmdb api key not configured")
)

const defaultRecentLimit = 5

// Service menggabungkan Store dan Provider. Aman dipakai bersamaan oleh banyak goroutine.
type Service struct {
	store       database.Store
	provider    Provider
	now         func() time.Time
	recentLimit int
	sessionTTL  time.Duration
}

type Option func(*Service)

// WithClock mengganti sumber waktu, dipakai di test.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecentLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// NewService membuat Service. store boleh nil jika DATABASE_URL tidak diset;
// setiap operasi lalu gagal dengan ConfigurationError.
func NewService(store database.Store, provider Provider, opts ...Option) *Service {
	s := &Service{
		store:       store,
		provider:    provider,
		now:         time.Now,
		recentLimit: defaultRecentLimit,
		sessionTTL:  30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) requireStore() error {
	if s.store == nil {
		return apperr.Wrap(apperr.Configuration, "Database not configured", ErrStoreNotConfigured)
	}
	return nil
}

func (s *Service) requireProvider() error {
	if s.provider == nil || !s.provider.Configured() {
		return apperr.Wrap(apperr.Configuration, "TMDB API key not configured", ErrProviderNotConfigured)
	}
	return nil
}

// Ping memeriksa koneksi database untuk health check.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	return s.store.Ping(ctx)
}

func upstreamError(message string, err error) error {
	if errors.Is(err, tmdb.ErrNotConfigured) {
		return apperr.Wrap(apperr.Configuration, "TMDB API key not configured", err)
	}
	return apperr.Wrap(apperr.Upstream, message, err)
}
