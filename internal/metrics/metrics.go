// Package metrics exposes Prometheus counters for the pairing core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redemption result labels.
const (
	ResultBound               = "bound"
	ResultNotFound            = "not_found"
	ResultAlreadyUsed         = "already_used"
	ResultExpired             = "expired"
	ResultAttemptsExceeded    = "attempts_exceeded"
	ResultFingerprintConflict = "fingerprint_conflict"
	ResultError               = "error"
)

var (
	// CodesIssued counts activation codes issued.
	CodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairing",
		Name:      "codes_issued_total",
		Help:      "Activation codes issued.",
	})

	// Redemptions counts redemption attempts by outcome.
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pairing",
		Name:      "redemptions_total",
		Help:      "Activation code redemption attempts by result.",
	}, []string{"result"})

	// SweptCodes counts codes expired by the sweeper.
	SweptCodes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairing",
		Name:      "swept_codes_total",
		Help:      "Activation codes transitioned to EXPIRED by the sweeper.",
	})

	// SweptSessions counts sessions expired by the sweeper.
	SweptSessions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairing",
		Name:      "swept_sessions_total",
		Help:      "Sessions transitioned to EXPIRED by the sweeper.",
	})

	// SessionsOpened counts sessions opened in the registry.
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pairing",
		Name:      "sessions_opened_total",
		Help:      "Sessions opened.",
	})
)
