// Package domain defines the merchant account model.
package domain

import "time"

// MerchantStatus is the lifecycle state of a merchant account.
type MerchantStatus string

const (
	// MerchantStatusActive means the account can log in.
	MerchantStatusActive MerchantStatus = "ACTIVE"
	// MerchantStatusDisabled means the account is retired. No hard delete.
	MerchantStatusDisabled MerchantStatus = "DISABLED"
)

// Merchant is a registered merchant account. The id doubles as the
// principal id on sessions issued for the merchant.
type Merchant struct {
	ID           string
	Email        string
	BusinessName string
	PasswordHash string
	Status       MerchantStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
