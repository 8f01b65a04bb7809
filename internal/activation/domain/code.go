// Package domain defines the activation-code lifecycle model.
package domain

import "time"

// CodeStatus is the lifecycle state of an activation code.
type CodeStatus string

const (
	// CodeStatusUnused means the code has been issued but not yet redeemed.
	CodeStatusUnused CodeStatus = "UNUSED"
	// CodeStatusBound means a device redeemed the code with its fingerprint.
	CodeStatusBound CodeStatus = "BOUND"
	// CodeStatusExpired is terminal: timed out, attempts exhausted, or
	// explicitly invalidated. No transition leaves this state.
	CodeStatusExpired CodeStatus = "EXPIRED"
)

// DefaultMaxAttempts bounds failed redemption attempts per code.
const DefaultMaxAttempts = 3

// DefaultCodeTTL is the issuance-to-expiry window.
const DefaultCodeTTL = 24 * time.Hour

// ActivationCode is one issued pairing code. Rows are never hard-deleted;
// retirement is the EXPIRED status.
type ActivationCode struct {
	Code        string
	DeviceRef   string
	Fingerprint string
	Attempts    int
	MaxAttempts int
	Status      CodeStatus
	IssuedAt    time.Time
	ExpiresAt   time.Time
	BoundAt     *time.Time // set iff Status == CodeStatusBound
	CreatedBy   string
	UpdatedAt   time.Time
}

// IsExpiredAt reports whether the code's window has elapsed at now,
// independent of whether the sweeper has written the EXPIRED status yet.
// The read-time check wins over the stored status.
func (c *ActivationCode) IsExpiredAt(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// AttemptsExhausted reports whether failed redemptions have reached the cap.
func (c *ActivationCode) AttemptsExhausted() bool {
	return c.Attempts >= c.MaxAttempts
}

// AttemptsRemaining returns how many failed redemptions the code can still
// absorb. Never negative.
func (c *ActivationCode) AttemptsRemaining() int {
	if c.Attempts >= c.MaxAttempts {
		return 0
	}
	return c.MaxAttempts - c.Attempts
}
