// Package service implements the session registry and issuance flows.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"pos-pairing-core/internal/metrics"
	"pos-pairing-core/internal/security"
	"pos-pairing-core/internal/session/domain"
	"pos-pairing-core/internal/session/repository"
)

// Sentinel errors for session operations.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// LoginResult holds the credentials returned by Login.
type LoginResult struct {
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // access token lifetime
}

// RefreshResult holds the new access token returned by Refresh.
type RefreshResult struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// SessionService opens, looks up, refreshes, and revokes sessions. It is the
// only code path that mints tokens; principals reach it after upstream
// authentication (merchant credential check or device code redemption).
type SessionService struct {
	repo   repository.Repository
	tokens *security.TokenProvider
	log    hclog.Logger
	nowF   func() time.Time
}

// NewSessionService returns a SessionService issuing tokens from the given
// provider.
func NewSessionService(repo repository.Repository, tokens *security.TokenProvider, log hclog.Logger) *SessionService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &SessionService{
		repo:   repo,
		tokens: tokens,
		log:    log,
		nowF:   func() time.Time { return time.Now().UTC() },
	}
}

// Login mints a token pair for an already-authenticated principal and opens
// a session for it. ipAddress and userAgent are optional metadata.
func (s *SessionService) Login(ctx context.Context, principalID, ipAddress, userAgent string) (*LoginResult, error) {
	sessionID := uuid.New().String()
	pair, err := s.tokens.IssuePair(principalID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.Open(ctx, sessionID, principalID, pair, ipAddress, userAgent); err != nil {
		return nil, err
	}
	return &LoginResult{
		SessionID:    sessionID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    s.tokens.AccessTTL(),
	}, nil
}

// Open records an issued token pair as an ACTIVE session. Only token hashes
// are stored.
func (s *SessionService) Open(ctx context.Context, sessionID, principalID string, pair *security.TokenPair, ipAddress, userAgent string) error {
	now := s.nowF()
	sess := &domain.Session{
		ID:               sessionID,
		PrincipalID:      principalID,
		AccessTokenHash:  security.HashToken(pair.AccessToken),
		RefreshTokenHash: security.HashToken(pair.RefreshToken),
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		Status:           domain.SessionStatusActive,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		LastActivityAt:   now,
		CreatedAt:        now,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return err
	}
	metrics.SessionsOpened.Inc()
	s.log.Info("session opened", "session_id", sessionID, "principal_id", principalID)
	return nil
}

// Lookup resolves a raw access or refresh token to its session, or nil when
// no session holds it.
func (s *SessionService) Lookup(ctx context.Context, token string) (*domain.Session, error) {
	return s.repo.GetByTokenHash(ctx, security.HashToken(token))
}

// Refresh verifies the refresh token and mints a new access token for its
// session. The refresh token itself is not rotated. Fails with
// ErrInvalidRefreshToken when the token is not an unexpired refresh token
// matching the session's stored hash, ErrSessionRevoked / ErrSessionExpired
// for terminal sessions, and the security package's errors for tampered or
// malformed input.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	info, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if info.Kind != security.TokenKindRefresh || info.Expired {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.repo.GetByID(ctx, info.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	switch sess.Status {
	case domain.SessionStatusRevoked:
		return nil, ErrSessionRevoked
	case domain.SessionStatusExpired:
		return nil, ErrSessionExpired
	}
	// Read-time check: the sweeper may not have written EXPIRED yet.
	now := s.nowF()
	if sess.RefreshElapsedAt(now) {
		return nil, ErrInvalidRefreshToken
	}
	if !security.TokenHashEqual(security.HashToken(refreshToken), sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sess.PrincipalID, sess.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAccessToken(ctx, sess.ID, security.HashToken(accessToken), accessExp, now); err != nil {
		return nil, err
	}
	s.log.Info("session refreshed", "session_id", sess.ID)
	return &RefreshResult{AccessToken: accessToken, ExpiresIn: s.tokens.AccessTTL()}, nil
}

// Touch updates the session's last-activity timestamp.
func (s *SessionService) Touch(ctx context.Context, sessionID string) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	return s.repo.Touch(ctx, sessionID, s.nowF())
}

// Revoke marks the session REVOKED. Terminal; revoking an already-revoked
// session is a no-op.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if err := s.repo.Revoke(ctx, sessionID, s.nowF()); err != nil {
		return err
	}
	s.log.Info("session revoked", "session_id", sessionID)
	return nil
}

// RevokeAllFor revokes every ACTIVE session of the principal, as on a
// device reset, and returns how many were revoked.
func (s *SessionService) RevokeAllFor(ctx context.Context, principalID string) (int64, error) {
	n, err := s.repo.RevokeAllForPrincipal(ctx, principalID, s.nowF())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("revoked all sessions", "principal_id", principalID, "count", n)
	}
	return n, nil
}
