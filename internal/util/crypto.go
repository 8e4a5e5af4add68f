package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// hashPrefix marks a stored password as already hashed. Raw passwords never
// start with it, so Normalize can tell the two apart.
const hashPrefix = "pbkdf2$"

const (
	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 32
)

// HashPassword hashes a password with PBKDF2+SHA256 and a random salt,
// returning a "pbkdf2$salt$hash" string.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	saltStr := base64.RawStdEncoding.EncodeToString(salt)
	hashStr := base64.RawStdEncoding.EncodeToString(hash)

	return hashPrefix + saltStr + "$" + hashStr, nil
}

// LooksHashed reports whether the stored value already carries the hash
// prefix, i.e. hashing it again would double-hash.
func LooksHashed(stored string) bool {
	return strings.HasPrefix(stored, hashPrefix)
}

// CheckPassword verifies a plaintext password against the stored hash.
func CheckPassword(password, stored string) bool {
	if password == "" || !LooksHashed(stored) {
		return false
	}

	parts := strings.Split(strings.TrimPrefix(stored, hashPrefix), "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	hash := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(hash, expected) == 1
}

// RandomString generates a URL-safe random string of length n, used for
// guest identifier suffixes.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:n], nil
}

// RandomOTPCode returns a 6-character uppercase hex code (3 random bytes).
func RandomOTPCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
