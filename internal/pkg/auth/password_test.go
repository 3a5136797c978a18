package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("expected hash to differ from password")
	}
	if err := hasher.Compare(hash, "hunter2"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := hasher.Compare(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestHashRejectsOversizedPassword(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := hasher.Hash(string(long)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestNewBcryptHasherDefaultCost(t *testing.T) {
	hasher := NewBcryptHasher(0)
	if hasher.cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", hasher.cost)
	}
}
