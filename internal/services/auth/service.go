package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/scrimline/scrimline-chat/internal/dependencies/clock"
	"github.com/scrimline/scrimline-chat/internal/model"
	"github.com/scrimline/scrimline-chat/internal/storage"
)

// Errors
var (
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Service validates session tokens against shared storage. Sessions are
// issued by the upstream platform (login, registration and credentials are
// owned there); this service only checks that a presented token maps to a
// live, unexpired session. Issue exists for the platform-side write path
// and for seeding local development and tests.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		logger:          logger.With(slog.String("component", "auth")),
		sessionDuration: cfg.SessionDuration,
	}
}

// Validate resolves a session token to the authenticated user session
func (s *Service) Validate(ctx context.Context, token string) (*model.UserSession, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.storage.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if !session.ExpiresAt.IsZero() && s.clock.Now().After(session.ExpiresAt) {
		// Expired sessions are cleaned up lazily on first rejection
		if err := s.storage.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, ErrInvalidSession
	}

	return session, nil
}

// Issue creates a session for the given identity and persists it
func (s *Service) Issue(ctx context.Context, userID model.UserID, displayName string) (*model.UserSession, error) {
	now := s.clock.Now()
	session := &model.UserSession{
		Token:       generateToken(),
		UserID:      userID,
		DisplayName: displayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionDuration),
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session issued", slog.String("user_id", string(userID)))
	return session, nil
}

// Revoke deletes a session
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// generateToken creates a cryptographically random session token
func generateToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return base64.URLEncoding.EncodeToString(b)
}
