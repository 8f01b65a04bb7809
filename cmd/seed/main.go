// seed inserts development sample data for local testing: one merchant
// (dev@example.com / devpassword) and one activation code for device
// dev-device-1. Idempotent: skips inserts if the dev merchant exists.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	activationrepo "pos-pairing-core/internal/activation/repository"
	activationservice "pos-pairing-core/internal/activation/service"
	"pos-pairing-core/internal/config"
	"pos-pairing-core/internal/db"
	"pos-pairing-core/internal/logging"
	merchantdomain "pos-pairing-core/internal/merchant/domain"
	merchantrepo "pos-pairing-core/internal/merchant/repository"
	"pos-pairing-core/internal/security"
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

	log := logging.New("seed", cfg.LogLevel)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	merchants := merchantrepo.NewPostgresRepository(conn)
	existing, err := merchants.GetByEmail(ctx, "dev@example.com")
	if err != nil {
		log.Error("lookup dev merchant", "error", err)
		os.Exit(1)
	}
	if existing != nil {
		log.Info("dev merchant already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte("devpassword"))
	if err != nil {
		log.Error("hash dev password", "error", err)
		os.Exit(1)
	}
	now := time.Now().UTC()
	m := &merchantdomain.Merchant{
		ID:           uuid.New().String(),
		Email:        "dev@example.com",
		BusinessName: "Dev Coffee",
		PasswordHash: hash,
		Status:       merchantdomain.MerchantStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := merchants.Create(ctx, m); err != nil {
		log.Error("create dev merchant", "error", err)
		os.Exit(1)
	}

	pairing := activationservice.NewPairingService(
		activationrepo.NewPostgresRepository(conn), log, cfg.CodeTTL(), cfg.ActivationMaxAttempts)
	code, err := pairing.Issue(ctx, "dev-device-1", m.ID)
	if err != nil {
		log.Error("issue dev activation code", "error", err)
		os.Exit(1)
	}

	log.Info("seeded dev data", "merchant_id", m.ID, "activation_code", code.Code)
}
