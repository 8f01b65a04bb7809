package service

import (
	"context"
	"time"

	"pos-pairing-core/internal/activation/domain"
	"pos-pairing-core/internal/activation/repository"
)

// Binder guarantees that at any instant at most one BOUND activation code
// exists per fingerprint. The reservation is not a separate step: it rides
// on the store's atomic UNUSED->BOUND transition, so it cannot race with a
// concurrent bind of the same fingerprint through another code.
type Binder struct {
	repo repository.Repository
}

// NewBinder returns a Binder over the given store.
func NewBinder(repo repository.Repository) *Binder {
	return &Binder{repo: repo}
}

// CheckAndReserve binds the code to the fingerprint if the code is still
// UNUSED and the fingerprint holds no other live binding. Returns the bound
// record, or repository.ErrNotUnused / repository.ErrFingerprintBound.
func (b *Binder) CheckAndReserve(ctx context.Context, code, fingerprint string, at time.Time) (*domain.ActivationCode, error) {
	return b.repo.Bind(ctx, code, fingerprint, at)
}

// FindBoundByFingerprint returns the live binding for the fingerprint, or
// nil when none exists. Lets a reconnecting device recover its binding
// without redeeming a new code.
func (b *Binder) FindBoundByFingerprint(ctx context.Context, fingerprint string) (*domain.ActivationCode, error) {
	return b.repo.FindBoundByFingerprint(ctx, fingerprint)
}
