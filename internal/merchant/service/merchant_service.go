// Package service implements merchant registration and login. It is the
// upstream credential collaborator of the pairing core: on success it hands
// the merchant id to the session service as an opaque principal id.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"pos-pairing-core/internal/merchant/domain"
	"pos-pairing-core/internal/merchant/repository"
	"pos-pairing-core/internal/security"
	sessionservice "pos-pairing-core/internal/session/service"
)

// Sentinel errors for merchant operations.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidEmail           = errors.New("invalid email format")
	ErrWeakPassword           = errors.New("password must be at least 8 characters")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// MerchantService registers merchants and authenticates logins.
type MerchantService struct {
	repo     repository.Repository
	hasher   *security.Hasher
	sessions *sessionservice.SessionService
	log      hclog.Logger
}

// NewMerchantService returns a MerchantService with the given dependencies.
func NewMerchantService(repo repository.Repository, hasher *security.Hasher, sessions *sessionservice.SessionService, log hclog.Logger) *MerchantService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &MerchantService{repo: repo, hasher: hasher, sessions: sessions, log: log}
}

// Register creates a merchant account and logs it in immediately, returning
// the new session's credentials.
func (s *MerchantService) Register(ctx context.Context, email, password, businessName, ipAddress, userAgent string) (*sessionservice.LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	m := &domain.Merchant{
		ID:           uuid.New().String(),
		Email:        email,
		BusinessName: strings.TrimSpace(businessName),
		PasswordHash: hashed,
		Status:       domain.MerchantStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	s.log.Info("merchant registered", "merchant_id", m.ID)
	return s.sessions.Login(ctx, m.ID, ipAddress, userAgent)
}

// Login verifies the merchant's credentials and opens a session. The error
// for an unknown email and for a wrong password is the same on purpose.
func (s *MerchantService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*sessionservice.LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	m, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Status != domain.MerchantStatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(m.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.sessions.Login(ctx, m.ID, ipAddress, userAgent)
}
