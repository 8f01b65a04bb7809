package repository

import (
	"context"
	"time"

	"pos-pairing-core/internal/session/domain"
)

// Repository defines persistence for sessions. Lookups are by token hash;
// raw tokens never reach the store.
type Repository interface {
	// GetByID returns the session, or nil if absent. Errors are database
	// failures only.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// GetByTokenHash returns the session holding the hash as either its
	// access or refresh token hash, or nil.
	GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	// Create persists a new ACTIVE session.
	Create(ctx context.Context, s *domain.Session) error
	// UpdateAccessToken replaces the session's access token hash and expiry
	// after a refresh, and bumps last activity.
	UpdateAccessToken(ctx context.Context, id, accessHash string, accessExpiresAt, at time.Time) error
	// Touch updates the session's last-activity timestamp.
	Touch(ctx context.Context, id string, at time.Time) error
	// Revoke marks the session REVOKED. No-op when already terminal.
	Revoke(ctx context.Context, id string, at time.Time) error
	// RevokeAllForPrincipal revokes every ACTIVE session of the principal
	// and returns how many rows changed.
	RevokeAllForPrincipal(ctx context.Context, principalID string, at time.Time) (int64, error)
	// SweepExpired marks every ACTIVE session whose refresh window elapsed
	// before now as EXPIRED and returns how many rows changed. Idempotent.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
