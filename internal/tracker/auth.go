package tracker

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"movieguide/internal/core/apperr"
	"movieguide/internal/core/database"
	"movieguide/internal/core/logging"
	"movieguide/internal/core/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid username or password"

// Register membuat user baru dengan password yang di-hash bcrypt.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "Username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "Password cannot be used", err)
	}
	now := s.now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Wrap(apperr.Conflict, "Username already taken", err)
		}
		return nil, apperr.Wrap(apperr.Storage, "Registration failed. Please try again.", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User registered")
	return &user, nil
}

// Login memeriksa kredensial dan menerbitkan session baru.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, *models.Session, error) {
	if err := s.requireStore(); err != nil {
		return nil, nil, err
	}
	if username == "" || password == "" {
		return nil, nil, apperr.New(apperr.Validation, "Username and password are required")
	}
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, apperr.Wrap(apperr.Storage, "Login failed. Please try again.", err)
	}
	if user == nil || !passwordMatches(user.Password, password) {
		return nil, nil, apperr.New(apperr.Unauthorized, invalidCredentials)
	}

	now := s.now().UTC()
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, apperr.Wrap(apperr.Storage, "Login failed. Please try again.", err)
	}
	return user, &session, nil
}

// Logout mencabut session. Token yang tidak dikenal dianggap sudah logout.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if token == "" {
		return apperr.New(apperr.Validation, "Token is required")
	}
	session, err := s.store.FindSession(ctx, token)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "Logout failed", err)
	}
	if session == nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return apperr.Wrap(apperr.Storage, "Logout failed", err)
	}
	logging.Ctx(ctx).Info().Str("user_id", session.UserID).Msg("Session revoked")
	return nil
}

// PurgeExpiredSessions menghapus session kedaluwarsa dan mengembalikan jumlahnya.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	if err := s.requireStore(); err != nil {
		return 0, err
	}
	return s.store.DeleteExpiredSessions(ctx, s.now().UTC())
}

// passwordMatches menerima hash bcrypt, atau password plaintext lama.
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
