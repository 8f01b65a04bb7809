package repository

import (
	"context"
	"errors"

	"pos-pairing-core/internal/merchant/domain"
)

// ErrDuplicateEmail is returned by Create when the email is already
// registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository defines persistence for merchant accounts.
type Repository interface {
	// GetByID returns the merchant, or nil if absent.
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)
	// GetByEmail returns the merchant registered under email, or nil.
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	// Create persists a new merchant. Returns ErrDuplicateEmail on a
	// uniqueness violation.
	Create(ctx context.Context, m *domain.Merchant) error
}
