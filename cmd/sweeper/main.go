// sweeper runs one expiry sweep over activation codes and sessions, then
// exits. Intended to be invoked by an external scheduler (cron, systemd
// timer); it carries no timer of its own.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	activationrepo "pos-pairing-core/internal/activation/repository"
	"pos-pairing-core/internal/config"
	"pos-pairing-core/internal/db"
	"pos-pairing-core/internal/logging"
	sessionrepo "pos-pairing-core/internal/session/repository"
	"pos-pairing-core/internal/sweeper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	log := logging.New("sweeper", cfg.LogLevel)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	s := sweeper.New(
		activationrepo.NewPostgresRepository(conn),
		sessionrepo.NewPostgresRepository(conn),
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	codes, sessions, err := s.SweepAll(ctx, time.Now().UTC())
	if err != nil {
		log.Error("sweep failed", "error", err)
		os.Exit(1)
	}
	log.Info("sweep complete", "codes_expired", codes, "sessions_expired", sessions)
}
