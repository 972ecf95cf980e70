package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordAndCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "s3cret" {
		t.Fatalf("expected opaque non-empty hash, got %q", hash)
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
	if CheckPassword("s3cret", "") {
		t.Fatalf("expected empty stored hash to fail")
	}
}

func TestMissingHashStillPaysFullCost(t *testing.T) {
	cost, err := bcrypt.Cost(dummyHash())
	if err != nil {
		t.Fatalf("dummy hash cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("expected dummy hash at cost %d, got %d", bcrypt.DefaultCost, cost)
	}
	if CheckPassword("booktracker-unknown-account", "") {
		t.Fatalf("the dummy hash must never authenticate")
	}
}

func TestHashPasswordLongInput(t *testing.T) {
	long := strings.Repeat("a", 200)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("hash long password: %v", err)
	}
	if !CheckPassword(long, hash) {
		t.Fatalf("expected long password to verify")
	}
	if CheckPassword(strings.Repeat("a", 199)+"b", hash) {
		t.Fatalf("bytes past 72 must still matter")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"12345", false},
		{"123456", true},
		{strings.Repeat("x", 255), true},
		{strings.Repeat("x", 256), false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if (err == nil) != tc.ok {
			t.Fatalf("ValidatePassword(len=%d) err=%v, want ok=%v", len(tc.password), err, tc.ok)
		}
	}
}
