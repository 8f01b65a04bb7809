package repository

import (
	"context"
	"errors"
	"time"

	"pos-pairing-core/internal/activation/domain"
)

// Store-level conflict errors. The pairing service maps these to its own
// typed outcomes.
var (
	// ErrDuplicateCode is returned by Create when the generated code value
	// already exists. The caller re-draws and retries.
	ErrDuplicateCode = errors.New("activation code already exists")
	// ErrNotUnused is returned by Bind when the code is no longer UNUSED,
	// including when a concurrent redemption won the transition.
	ErrNotUnused = errors.New("activation code is not unused")
	// ErrFingerprintBound is returned by Bind when the fingerprint already
	// has a BOUND code elsewhere.
	ErrFingerprintBound = errors.New("fingerprint already bound")
)

// Repository defines persistence for activation codes. Implementations must
// make Bind atomic: the UNUSED check, the fingerprint-uniqueness check, and
// the transition commit as one unit.
type Repository interface {
	// GetByCode returns the code row, or nil if absent. Errors are database
	// failures only, never missing rows.
	GetByCode(ctx context.Context, code string) (*domain.ActivationCode, error)
	// GetUnusedByDevice returns the device's live UNUSED code, or nil.
	GetUnusedByDevice(ctx context.Context, deviceRef string) (*domain.ActivationCode, error)
	// FindBoundByFingerprint returns the BOUND code holding the
	// fingerprint, or nil. Supports device-reconnect flows.
	FindBoundByFingerprint(ctx context.Context, fingerprint string) (*domain.ActivationCode, error)
	// Create persists a new UNUSED code. Returns ErrDuplicateCode when the
	// code value collides with a live row.
	Create(ctx context.Context, c *domain.ActivationCode) error
	// Bind transitions code UNUSED->BOUND with the fingerprint at the given
	// time, atomically. Returns the updated row, ErrNotUnused, or
	// ErrFingerprintBound.
	Bind(ctx context.Context, code, fingerprint string, at time.Time) (*domain.ActivationCode, error)
	// IncrementAttempts adds one failed redemption attempt to the code.
	// Committed independently of the failing redemption.
	IncrementAttempts(ctx context.Context, code string, at time.Time) error
	// MarkExpired forces the code to EXPIRED. No-op if already EXPIRED.
	MarkExpired(ctx context.Context, code string, at time.Time) error
	// ExpireAllForDevice transitions every UNUSED or BOUND code of the
	// device to EXPIRED and returns how many rows changed.
	ExpireAllForDevice(ctx context.Context, deviceRef string, at time.Time) (int64, error)
	// SweepExpired transitions every UNUSED code past its expiry to EXPIRED
	// and returns how many rows changed. Idempotent.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
