// Package cryptox generates and checks one-time codes and hashes opaque
// tokens for storage.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// randReader is swapped in tests.
var randReader io.Reader = rand.Reader

// NewOTP returns a uniformly random numeric code of the given length.
func NewOTP(digits int) (string, error) {
	if digits <= 0 {
		return "", errors.New("digits must be positive")
	}
	ten := big.NewInt(10)
	buf := make([]byte, digits)
	for i := range buf {
		n, err := rand.Int(randReader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// HashCode returns a bcrypt hash of code.
func HashCode(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CompareCode reports whether code matches a hash produced by HashCode.
func CompareCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// HashToken returns the hex SHA-256 of a high-entropy token. Refresh tokens
// are stored this way so a database leak does not expose live credentials.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
