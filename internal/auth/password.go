package auth

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Password hashing. bcrypt embeds its own per-hash salt; the additional
// per-user salt is kept because the stored schema carries one, and it is
// mixed into the hashed input so the stored hash is bound to it.

// NewSalt mints a random per-user salt
func NewSalt() string {
	return uuid.New().String()
}

// HashPassword derives a bcrypt hash over the salted password
func HashPassword(password, salt string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+salt), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the password and salt reproduce the hash
func VerifyPassword(hash, password, salt string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+salt)) == nil
}
