// Package domain defines the session model of the registry.
package domain

import "time"

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	// SessionStatusActive means the session's tokens are honored.
	SessionStatusActive SessionStatus = "ACTIVE"
	// SessionStatusExpired is written by the sweeper once the refresh
	// window has elapsed.
	SessionStatusExpired SessionStatus = "EXPIRED"
	// SessionStatusRevoked is terminal: explicitly invalidated, never
	// reactivated.
	SessionStatusRevoked SessionStatus = "REVOKED"
)

// Session records one issued access/refresh token pair for a principal.
// Only token hashes are stored. Rows are never hard-deleted (audit trail).
type Session struct {
	ID               string
	PrincipalID      string
	AccessTokenHash  string
	RefreshTokenHash string
	AccessExpiresAt  time.Time // never after RefreshExpiresAt
	RefreshExpiresAt time.Time
	Status           SessionStatus
	IPAddress        string
	UserAgent        string
	LastActivityAt   time.Time
	CreatedAt        time.Time
}

// RefreshElapsedAt reports whether the refresh window has fully elapsed at
// now. The access window closes no later than the refresh window, so this
// also means the session is past all usefulness.
func (s *Session) RefreshElapsedAt(now time.Time) bool {
	return !s.RefreshExpiresAt.IsZero() && s.RefreshExpiresAt.Before(now)
}
