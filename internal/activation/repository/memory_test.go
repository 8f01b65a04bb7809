package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"pos-pairing-core/internal/activation/domain"
)

func newCode(code, deviceRef string, ttl time.Duration) *domain.ActivationCode {
	now := time.Now().UTC()
	return &domain.ActivationCode{
		Code:        code,
		DeviceRef:   deviceRef,
		MaxAttempts: domain.DefaultMaxAttempts,
		Status:      domain.CodeStatusUnused,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
		UpdatedAt:   now,
	}
}

func TestMemoryCreate_DuplicateCode(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newCode("AAAABBBBCCCC", "d1", time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := repo.Create(ctx, newCode("AAAABBBBCCCC", "d2", time.Hour))
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("err = %v, want ErrDuplicateCode", err)
	}
}

func TestMemoryBind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newCode("AAAABBBBCCCC", "d1", time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	bound, err := repo.Bind(ctx, "AAAABBBBCCCC", "fp-1", now)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if bound.Status != domain.CodeStatusBound || bound.Fingerprint != "fp-1" {
		t.Fatalf("bound = %+v", bound)
	}
	if bound.BoundAt == nil || !bound.BoundAt.Equal(now) {
		t.Errorf("boundAt = %v, want %v", bound.BoundAt, now)
	}

	// Binding a BOUND code again fails.
	if _, err := repo.Bind(ctx, "AAAABBBBCCCC", "fp-2", now); !errors.Is(err, ErrNotUnused) {
		t.Errorf("rebind: err = %v, want ErrNotUnused", err)
	}

	// A second code cannot take the same fingerprint while the first holds it.
	if err := repo.Create(ctx, newCode("DDDDEEEEFFFF", "d2", time.Hour)); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if _, err := repo.Bind(ctx, "DDDDEEEEFFFF", "fp-1", now); !errors.Is(err, ErrFingerprintBound) {
		t.Errorf("conflicting bind: err = %v, want ErrFingerprintBound", err)
	}
}

func TestMemoryBind_UnknownCode(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.Bind(context.Background(), "NOSUCHCODE12", "fp-1", time.Now().UTC())
	if !errors.Is(err, ErrNotUnused) {
		t.Fatalf("err = %v, want ErrNotUnused", err)
	}
}

func TestMemoryGetByCode_ReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newCode("AAAABBBBCCCC", "d1", time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByCode(ctx, "AAAABBBBCCCC")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	got.Status = domain.CodeStatusExpired

	again, _ := repo.GetByCode(ctx, "AAAABBBBCCCC")
	if again.Status != domain.CodeStatusUnused {
		t.Fatal("mutating a returned record leaked into the store")
	}
}

func TestMemorySweepExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	stale := newCode("AAAABBBBCCCC", "d1", -time.Minute)
	live := newCode("DDDDEEEEFFFF", "d2", time.Hour)
	held := newCode("GGGGHHHHIIII", "d3", -time.Minute)
	for _, c := range []*domain.ActivationCode{stale, live, held} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.Code, err)
		}
	}
	// A BOUND code past its window stays untouched by the sweep.
	if _, err := repo.Bind(ctx, held.Code, "fp-held", time.Now().UTC()); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	now := time.Now().UTC()
	n, err := repo.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept = %d, want 1", n)
	}

	for code, want := range map[string]domain.CodeStatus{
		stale.Code: domain.CodeStatusExpired,
		live.Code:  domain.CodeStatusUnused,
		held.Code:  domain.CodeStatusBound,
	} {
		got, _ := repo.GetByCode(ctx, code)
		if got.Status != want {
			t.Errorf("code %s status = %s, want %s", code, got.Status, want)
		}
	}

	// Idempotent.
	n, err = repo.SweepExpired(ctx, now)
	if err != nil {
		t.Fatalf("second SweepExpired: %v", err)
	}
	if n != 0 {
		t.Errorf("second sweep = %d, want 0", n)
	}
}

func TestMemoryGetUnusedByDevice_PicksLatest(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	older := newCode("AAAABBBBCCCC", "d1", time.Hour)
	older.IssuedAt = older.IssuedAt.Add(-time.Minute)
	newer := newCode("DDDDEEEEFFFF", "d1", time.Hour)
	for _, c := range []*domain.ActivationCode{older, newer} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.Code, err)
		}
	}

	got, err := repo.GetUnusedByDevice(ctx, "d1")
	if err != nil {
		t.Fatalf("GetUnusedByDevice: %v", err)
	}
	if got == nil || got.Code != newer.Code {
		t.Fatalf("got = %+v, want %s", got, newer.Code)
	}

	none, _ := repo.GetUnusedByDevice(ctx, "d-unknown")
	if none != nil {
		t.Errorf("got = %+v, want nil for unknown device", none)
	}
}
