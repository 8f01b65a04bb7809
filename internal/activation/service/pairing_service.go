// Package service implements the activation-code state machine.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"pos-pairing-core/internal/activation"
	"pos-pairing-core/internal/activation/domain"
	"pos-pairing-core/internal/activation/repository"
	"pos-pairing-core/internal/metrics"
)

// Sentinel errors for pairing operations; the transport layer maps them to
// response codes.
var (
	ErrInvalidArgument     = errors.New("device ref is required")
	ErrCodeNotFound        = errors.New("activation code not found")
	ErrAlreadyUsed         = errors.New("activation code already used or expired")
	ErrCodeExpired         = errors.New("activation code expired")
	ErrAttemptsExceeded    = errors.New("activation attempts exceeded")
	ErrFingerprintConflict = errors.New("fingerprint already bound to another code")
)

// How many times Issue re-draws when a generated code collides with a live
// row before giving up.
const maxIssueRedraws = 5

// PairingService enforces the activation-code lifecycle:
// UNUSED -> BOUND on successful redemption, UNUSED -> EXPIRED on timeout or
// exhausted attempts, BOUND -> EXPIRED on explicit invalidation. EXPIRED is
// terminal.
type PairingService struct {
	repo        repository.Repository
	binder      *Binder
	log         hclog.Logger
	codeTTL     time.Duration
	maxAttempts int
	nowF        func() time.Time
}

// NewPairingService returns a PairingService issuing codes with the given
// TTL and attempt cap. Non-positive values fall back to the domain defaults.
func NewPairingService(repo repository.Repository, log hclog.Logger, codeTTL time.Duration, maxAttempts int) *PairingService {
	if codeTTL <= 0 {
		codeTTL = domain.DefaultCodeTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &PairingService{
		repo:        repo,
		binder:      NewBinder(repo),
		log:         log,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
		nowF:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a fresh activation code for the device. Any prior UNUSED
// code held by the device is forced to EXPIRED first, so a device has at
// most one live code. createdBy records the operator issuing the code and
// may be empty for device-initiated flows.
func (s *PairingService) Issue(ctx context.Context, deviceRef, createdBy string) (*domain.ActivationCode, error) {
	deviceRef = strings.TrimSpace(deviceRef)
	if deviceRef == "" {
		return nil, ErrInvalidArgument
	}
	now := s.nowF()

	prior, err := s.repo.GetUnusedByDevice(ctx, deviceRef)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		if err := s.repo.MarkExpired(ctx, prior.Code, now); err != nil {
			return nil, err
		}
		s.log.Info("superseded prior activation code", "device_ref", deviceRef, "code", prior.Code)
	}

	for i := 0; i < maxIssueRedraws; i++ {
		code, err := activation.GenerateCode()
		if err != nil {
			return nil, err
		}
		c := &domain.ActivationCode{
			Code:        code,
			DeviceRef:   deviceRef,
			Attempts:    0,
			MaxAttempts: s.maxAttempts,
			Status:      domain.CodeStatusUnused,
			IssuedAt:    now,
			ExpiresAt:   now.Add(s.codeTTL),
			CreatedBy:   createdBy,
			UpdatedAt:   now,
		}
		err = s.repo.Create(ctx, c)
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		metrics.CodesIssued.Inc()
		s.log.Info("issued activation code", "device_ref", deviceRef, "expires_at", c.ExpiresAt)
		return c, nil
	}
	return nil, errors.New("could not generate a unique activation code")
}

// Redeem presents a code plus device fingerprint to claim the binding.
// Exactly one of two concurrent redemptions of the same UNUSED code
// succeeds; the loser observes ErrAlreadyUsed. A fingerprint conflict
// counts as a failed attempt on the offered code, and that increment is
// committed even though the redemption fails.
func (s *PairingService) Redeem(ctx context.Context, code, fingerprint string) (*domain.ActivationCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	fingerprint = strings.TrimSpace(fingerprint)
	if code == "" || fingerprint == "" {
		return nil, ErrInvalidArgument
	}
	now := s.nowF()

	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		metrics.Redemptions.WithLabelValues(metrics.ResultNotFound).Inc()
		return nil, ErrCodeNotFound
	}
	if c.Status != domain.CodeStatusUnused {
		metrics.Redemptions.WithLabelValues(metrics.ResultAlreadyUsed).Inc()
		return nil, ErrAlreadyUsed
	}
	// Read-time expiry wins over the stored status, whether or not the
	// sweeper has caught up.
	if c.IsExpiredAt(now) {
		if err := s.repo.MarkExpired(ctx, code, now); err != nil {
			return nil, err
		}
		metrics.Redemptions.WithLabelValues(metrics.ResultExpired).Inc()
		return nil, ErrCodeExpired
	}
	if c.AttemptsExhausted() {
		if err := s.repo.MarkExpired(ctx, code, now); err != nil {
			return nil, err
		}
		metrics.Redemptions.WithLabelValues(metrics.ResultAttemptsExceeded).Inc()
		return nil, ErrAttemptsExceeded
	}

	bound, err := s.binder.CheckAndReserve(ctx, code, fingerprint, now)
	switch {
	case errors.Is(err, repository.ErrFingerprintBound):
		if incErr := s.repo.IncrementAttempts(ctx, code, now); incErr != nil {
			return nil, incErr
		}
		metrics.Redemptions.WithLabelValues(metrics.ResultFingerprintConflict).Inc()
		s.log.Warn("redemption rejected: fingerprint already bound", "code", code)
		return nil, ErrFingerprintConflict
	case errors.Is(err, repository.ErrNotUnused):
		// Lost a concurrent transition between the read above and the bind.
		metrics.Redemptions.WithLabelValues(metrics.ResultAlreadyUsed).Inc()
		return nil, ErrAlreadyUsed
	case err != nil:
		metrics.Redemptions.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}

	metrics.Redemptions.WithLabelValues(metrics.ResultBound).Inc()
	s.log.Info("device bound", "device_ref", bound.DeviceRef, "code", code)
	return bound, nil
}

// Status returns the code's current record without mutating it.
func (s *PairingService) Status(ctx context.Context, code string) (*domain.ActivationCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCodeNotFound
	}
	return c, nil
}

// FindBoundByFingerprint lets a reconnecting device recover its binding.
// Returns nil when the fingerprint has no live binding.
func (s *PairingService) FindBoundByFingerprint(ctx context.Context, fingerprint string) (*domain.ActivationCode, error) {
	return s.binder.FindBoundByFingerprint(ctx, fingerprint)
}

// InvalidateAllForDevice expires every UNUSED or BOUND code of the device,
// as on a factory reset. Idempotent; returns the number of codes expired.
func (s *PairingService) InvalidateAllForDevice(ctx context.Context, deviceRef string) (int64, error) {
	deviceRef = strings.TrimSpace(deviceRef)
	if deviceRef == "" {
		return 0, ErrInvalidArgument
	}
	n, err := s.repo.ExpireAllForDevice(ctx, deviceRef, s.nowF())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("invalidated device activation codes", "device_ref", deviceRef, "count", n)
	}
	return n, nil
}
