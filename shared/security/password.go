package security

import (
	"errors"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyHash = errors.New("empty password hash")

// HashPassword hashes the given plaintext with argon2id and returns the
// encoded PHC string.
func HashPassword(password string) (string, error) {
	cfg := argon2.DefaultConfig()

	encoded, err := cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether password matches the encoded hash.
// Hashes written by the previous Node.js backend are bcrypt strings and are
// still accepted.
func VerifyPassword(password, hash string) (bool, error) {
	if hash == "" {
		return false, ErrEmptyHash
	}

	if isBcryptHash(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}

	return argon2.VerifyEncoded([]byte(password), []byte(hash))
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// Hasher adapts HashPassword and VerifyPassword to the credential hasher
// dependency of the usecases.
type Hasher struct{}

// NewHasher creates a new Hasher instance.
func NewHasher() *Hasher {
	return &Hasher{}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	return HashPassword(plaintext)
}

func (h *Hasher) Compare(plaintext, hash string) (bool, error) {
	return VerifyPassword(plaintext, hash)
}
