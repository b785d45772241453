// Package secrets implements the two hashing disciplines used by the
// credential subsystem: slow salted hashing for passwords and fast
// deterministic digests for single-use reset/OTP secrets.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// ResetTokenBytes is the entropy of a generated password-reset token.
const ResetTokenBytes = 32

// OTPDigits is the length of a generated one-time passcode.
const OTPDigits = 6

// HashPassword derives a salted bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether the candidate matches the stored bcrypt
// hash. A malformed stored hash counts as a mismatch, never an error.
func VerifyPassword(storedHash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}

// HashToken digests a reset token or OTP for storage, so the store never
// holds a usable secret in plaintext. Lookups compare digest equality.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// NewResetToken generates a URL-safe random token suitable for a password
// reset link. The plaintext is sent to the user; only its digest is stored.
func NewResetToken() (string, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewOTP generates a fixed-length numeric one-time passcode.
func NewOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", OTPDigits, n), nil
}
