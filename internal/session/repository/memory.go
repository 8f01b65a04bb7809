package repository

import (
	"context"
	"sync"
	"time"

	"pos-pairing-core/internal/session/domain"
)

// MemoryRepository is an in-memory session store for development and tests.
type MemoryRepository struct {
	mu sync.RWMutex
	m  map[string]*domain.Session
}

// NewMemoryRepository returns an empty in-memory session store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]*domain.Session)}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSession(r.m[id]), nil
}

func (r *MemoryRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.m {
		if s.AccessTokenHash == hash || s.RefreshTokenHash == hash {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[s.ID] = cloneSession(s)
	return nil
}

func (r *MemoryRepository) UpdateAccessToken(ctx context.Context, id, accessHash string, accessExpiresAt, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.AccessTokenHash = accessHash
		s.AccessExpiresAt = accessExpiresAt
		s.LastActivityAt = at
	}
	return nil
}

func (r *MemoryRepository) Touch(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.LastActivityAt = at
	}
	return nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok && s.Status != domain.SessionStatusRevoked {
		s.Status = domain.SessionStatusRevoked
		s.LastActivityAt = at
	}
	return nil
}

func (r *MemoryRepository) RevokeAllForPrincipal(ctx context.Context, principalID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.m {
		if s.PrincipalID == principalID && s.Status == domain.SessionStatusActive {
			s.Status = domain.SessionStatusRevoked
			s.LastActivityAt = at
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.m {
		if s.Status == domain.SessionStatusActive && s.RefreshElapsedAt(now) {
			s.Status = domain.SessionStatusExpired
			n++
		}
	}
	return n, nil
}

func cloneSession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	s2 := *s
	return &s2
}
