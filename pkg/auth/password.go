package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 255
)

var ErrPasswordLength = errors.New("password must be between 6 and 255 characters long")

// HashPassword returns a bcrypt hash of password.
// The password is pre-hashed with SHA-256 so inputs longer than bcrypt's
// 72-byte limit still contribute every byte.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// dummyHash stands in for a missing account so a failed lookup costs the
// same bcrypt comparison as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword(prehash("booktracker-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// CheckPassword reports whether password matches the stored bcrypt hash.
// An empty stored hash never matches but is still compared.
func CheckPassword(password, stored string) bool {
	if stored == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), prehash(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), prehash(password)) == nil
}

// ValidatePassword enforces the accepted password length.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordLength
	}
	return nil
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
