package tracker

import (
	"context"
	"strings"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/models"
)

// Resolve mencari user berdasarkan username secara persis (case-sensitive).
func (s *Service) Resolve(ctx context.Context, username string) (*models.User, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, apperr.New(apperr.Validation, "Username is required")
	}
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Wrap(apperr.Storage, "Failed to look up user", err)
	}
	if user == nil {
		return nil, apperr.Wrap(apperr.NotFound, "User not found", ErrUserNotFound)
	}
	return user, nil
}
