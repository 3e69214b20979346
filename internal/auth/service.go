package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/receiptwise/receiptwise/internal/common"
	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/repository"
)

// Service implements cookie-session authentication on top of the
// external identity provider and the session store.
type Service struct {
	provider   IdentityProvider
	sessions   repository.SessionRepository
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewService(provider IdentityProvider, sessions repository.SessionRepository, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider:   provider,
		sessions:   sessions,
		sessionTTL: ttl,
		logger:     logger,
	}
}

// SessionTTL is the lifetime applied to issued sessions.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Login exchanges a provider session_id for a local session. The user
// record is upserted by email so repeat logins refresh name/picture.
func (s *Service) Login(ctx context.Context, sessionID string) (*entity.User, *entity.Session, error) {
	id, err := s.provider.ExchangeSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn("auth.login.exchange_failed", "error", err)
		return nil, nil, err
	}

	user, err := s.sessions.UpsertUserByEmail(id.Email, id.Name, id.Picture)
	if err != nil {
		return nil, nil, common.WrapError(err, "upsert user")
	}

	token := id.SessionToken
	if token == "" {
		token = entity.NewSessionToken()
	}
	now := time.Now().UTC()
	sess := &entity.Session{
		SessionID:    uuid.New().String(),
		UserID:       user.UserID,
		SessionToken: token,
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
	}
	if err := s.sessions.CreateSession(sess); err != nil {
		return nil, nil, common.WrapError(err, "create session")
	}

	s.logger.Info("auth.login.ok", "user_id", user.UserID)
	return user, sess, nil
}

// CurrentUser resolves a session token to its user, enforcing expiry.
func (s *Service) CurrentUser(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, common.ErrUnauthorized
	}
	sess, err := s.sessions.GetSessionByToken(token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		return nil, common.ErrUnauthorized
	}
	user, err := s.sessions.GetUser(sess.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Logout drops the session; missing tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSessionByToken(token)
}
