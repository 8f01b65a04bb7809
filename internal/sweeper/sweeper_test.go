package sweeper

import (
	"context"
	"testing"
	"time"

	activationdomain "pos-pairing-core/internal/activation/domain"
	activationrepo "pos-pairing-core/internal/activation/repository"
	sessiondomain "pos-pairing-core/internal/session/domain"
	sessionrepo "pos-pairing-core/internal/session/repository"
)

func seedCode(t *testing.T, repo *activationrepo.MemoryRepository, code string, ttl time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Create(context.Background(), &activationdomain.ActivationCode{
		Code:        code,
		DeviceRef:   "d-" + code,
		MaxAttempts: activationdomain.DefaultMaxAttempts,
		Status:      activationdomain.CodeStatusUnused,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create %s: %v", code, err)
	}
}

func seedSession(t *testing.T, repo *sessionrepo.MemoryRepository, id string, refreshTTL time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Create(context.Background(), &sessiondomain.Session{
		ID:               id,
		PrincipalID:      "p-" + id,
		AccessTokenHash:  "ah-" + id,
		RefreshTokenHash: "rh-" + id,
		AccessExpiresAt:  now.Add(refreshTTL - time.Minute),
		RefreshExpiresAt: now.Add(refreshTTL),
		Status:           sessiondomain.SessionStatusActive,
		LastActivityAt:   now,
		CreatedAt:        now,
	})
	if err != nil {
		t.Fatalf("Create %s: %v", id, err)
	}
}

func TestSweepAll(t *testing.T) {
	codes := activationrepo.NewMemoryRepository()
	sessions := sessionrepo.NewMemoryRepository()
	sw := New(codes, sessions, nil)
	ctx := context.Background()

	seedCode(t, codes, "STALECODE001", -time.Minute)
	seedCode(t, codes, "STALECODE002", -time.Hour)
	seedCode(t, codes, "FRESHCODE001", time.Hour)
	seedSession(t, sessions, "s-stale", -time.Minute)
	seedSession(t, sessions, "s-live", time.Hour)

	now := time.Now().UTC()
	sweptCodes, sweptSessions, err := sw.SweepAll(ctx, now)
	if err != nil {
		t.Fatalf("SweepAll: %v", err)
	}
	if sweptCodes != 2 {
		t.Errorf("sweptCodes = %d, want 2", sweptCodes)
	}
	if sweptSessions != 1 {
		t.Errorf("sweptSessions = %d, want 1", sweptSessions)
	}

	fresh, _ := codes.GetByCode(ctx, "FRESHCODE001")
	if fresh.Status != activationdomain.CodeStatusUnused {
		t.Errorf("live code swept to %s", fresh.Status)
	}
	live, _ := sessions.GetByID(ctx, "s-live")
	if live.Status != sessiondomain.SessionStatusActive {
		t.Errorf("live session swept to %s", live.Status)
	}
	stale, _ := sessions.GetByID(ctx, "s-stale")
	if stale.Status != sessiondomain.SessionStatusExpired {
		t.Errorf("stale session status = %s, want EXPIRED", stale.Status)
	}
}

func TestSweepAll_Idempotent(t *testing.T) {
	codes := activationrepo.NewMemoryRepository()
	sessions := sessionrepo.NewMemoryRepository()
	sw := New(codes, sessions, nil)
	ctx := context.Background()

	seedCode(t, codes, "STALECODE001", -time.Minute)
	seedSession(t, sessions, "s-stale", -time.Minute)

	now := time.Now().UTC()
	if _, _, err := sw.SweepAll(ctx, now); err != nil {
		t.Fatalf("first SweepAll: %v", err)
	}
	c, s, err := sw.SweepAll(ctx, now)
	if err != nil {
		t.Fatalf("second SweepAll: %v", err)
	}
	if c != 0 || s != 0 {
		t.Fatalf("second sweep = (%d, %d), want (0, 0)", c, s)
	}
}

func TestSweep_LeavesRevokedAlone(t *testing.T) {
	codes := activationrepo.NewMemoryRepository()
	sessions := sessionrepo.NewMemoryRepository()
	sw := New(codes, sessions, nil)
	ctx := context.Background()

	seedSession(t, sessions, "s-revoked", -time.Minute)
	if err := sessions.Revoke(ctx, "s-revoked", time.Now().UTC()); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	n, err := sw.SweepExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("SweepExpiredSessions: %v", err)
	}
	if n != 0 {
		t.Fatalf("swept = %d, want 0", n)
	}
	sess, _ := sessions.GetByID(ctx, "s-revoked")
	if sess.Status != sessiondomain.SessionStatusRevoked {
		t.Errorf("status = %s, want REVOKED preserved", sess.Status)
	}
}
