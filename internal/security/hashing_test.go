package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash([]byte("correct horse battery staple"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(hash, []byte("correct horse battery staple")); err != nil {
		t.Errorf("Compare with right password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Error("Compare with wrong password succeeded")
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if got := NewHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("cost(0) = %d, want default %d", got, bcrypt.DefaultCost)
	}
	if got := NewHasher(2).Cost; got != bcrypt.MinCost {
		t.Errorf("cost(2) = %d, want min %d", got, bcrypt.MinCost)
	}
	if got := NewHasher(99).Cost; got != bcrypt.MaxCost {
		t.Errorf("cost(99) = %d, want max %d", got, bcrypt.MaxCost)
	}
}
