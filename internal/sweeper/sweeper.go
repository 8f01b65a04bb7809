// Package sweeper reclaims expired activation codes and sessions in batch.
package sweeper

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	activationrepo "pos-pairing-core/internal/activation/repository"
	"pos-pairing-core/internal/metrics"
	sessionrepo "pos-pairing-core/internal/session/repository"
)

// Sweeper bulk-expires stale rows in both stores. It is idempotent and
// re-entrant: safe to run on a fixed interval or on demand, concurrently
// with live redemptions, and it never touches rows still within their
// window. It runs only when invoked; there is no in-process timer.
type Sweeper struct {
	codes    activationrepo.Repository
	sessions sessionrepo.Repository
	log      hclog.Logger
}

// New returns a Sweeper over the two stores.
func New(codes activationrepo.Repository, sessions sessionrepo.Repository, log hclog.Logger) *Sweeper {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Sweeper{codes: codes, sessions: sessions, log: log}
}

// SweepExpiredCodes transitions every UNUSED code with expiresAt < now to
// EXPIRED and returns the count. Never un-expires anything.
func (s *Sweeper) SweepExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.codes.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SweptCodes.Add(float64(n))
		s.log.Info("swept expired activation codes", "count", n)
	}
	return n, nil
}

// SweepExpiredSessions transitions every ACTIVE session whose refresh
// window elapsed before now to EXPIRED and returns the count. The access
// window never outlasts the refresh window, so both have elapsed.
func (s *Sweeper) SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.sessions.SweepExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SweptSessions.Add(float64(n))
		s.log.Info("swept expired sessions", "count", n)
	}
	return n, nil
}

// SweepAll runs both sweeps and returns the combined counts.
func (s *Sweeper) SweepAll(ctx context.Context, now time.Time) (codes, sessions int64, err error) {
	codes, err = s.SweepExpiredCodes(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	sessions, err = s.SweepExpiredSessions(ctx, now)
	if err != nil {
		return codes, 0, err
	}
	return codes, sessions, nil
}
