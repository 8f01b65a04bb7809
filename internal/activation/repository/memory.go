package repository

import (
	"context"
	"sync"
	"time"

	"pos-pairing-core/internal/activation/domain"
)

// MemoryRepository is an in-memory Repository for development and tests.
// A single mutex spans every mutation, so Bind's check-and-transition is
// atomic the same way the Postgres statement is.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.ActivationCode
}

// NewMemoryRepository returns an empty in-memory activation-code store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.ActivationCode)}
}

func (r *MemoryRepository) GetByCode(ctx context.Context, code string) (*domain.ActivationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneCode(r.m[code]), nil
}

func (r *MemoryRepository) GetUnusedByDevice(ctx context.Context, deviceRef string) (*domain.ActivationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *domain.ActivationCode
	for _, c := range r.m {
		if c.DeviceRef != deviceRef || c.Status != domain.CodeStatusUnused {
			continue
		}
		if latest == nil || c.IssuedAt.After(latest.IssuedAt) {
			latest = c
		}
	}
	return cloneCode(latest), nil
}

func (r *MemoryRepository) FindBoundByFingerprint(ctx context.Context, fingerprint string) (*domain.ActivationCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneCode(r.findBoundLocked(fingerprint)), nil
}

func (r *MemoryRepository) Create(ctx context.Context, c *domain.ActivationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.m[c.Code]; exists {
		return ErrDuplicateCode
	}
	r.m[c.Code] = cloneCode(c)
	return nil
}

func (r *MemoryRepository) Bind(ctx context.Context, code, fingerprint string, at time.Time) (*domain.ActivationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[code]
	if !ok || c.Status != domain.CodeStatusUnused {
		return nil, ErrNotUnused
	}
	if r.findBoundLocked(fingerprint) != nil {
		return nil, ErrFingerprintBound
	}
	c.Status = domain.CodeStatusBound
	c.Fingerprint = fingerprint
	boundAt := at
	c.BoundAt = &boundAt
	c.UpdatedAt = at
	return cloneCode(c), nil
}

func (r *MemoryRepository) IncrementAttempts(ctx context.Context, code string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.m[code]; ok {
		c.Attempts++
		c.UpdatedAt = at
	}
	return nil
}

func (r *MemoryRepository) MarkExpired(ctx context.Context, code string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.m[code]; ok && c.Status != domain.CodeStatusExpired {
		c.Status = domain.CodeStatusExpired
		c.UpdatedAt = at
	}
	return nil
}

func (r *MemoryRepository) ExpireAllForDevice(ctx context.Context, deviceRef string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.m {
		if c.DeviceRef != deviceRef {
			continue
		}
		if c.Status == domain.CodeStatusUnused || c.Status == domain.CodeStatusBound {
			c.Status = domain.CodeStatusExpired
			c.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.m {
		if c.Status == domain.CodeStatusUnused && c.ExpiresAt.Before(now) {
			c.Status = domain.CodeStatusExpired
			c.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) findBoundLocked(fingerprint string) *domain.ActivationCode {
	for _, c := range r.m {
		if c.Fingerprint == fingerprint && c.Status == domain.CodeStatusBound {
			return c
		}
	}
	return nil
}

func cloneCode(c *domain.ActivationCode) *domain.ActivationCode {
	if c == nil {
		return nil
	}
	c2 := *c
	if c.BoundAt != nil {
		t := *c.BoundAt
		c2.BoundAt = &t
	}
	return &c2
}
