package auth

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeLength   = 32
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
)

// dummyHash is compared against when there is no stored code so that a
// missing code and a wrong code take the same time.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOHi6VbU5h6K9v8u5rO0m3j0h6dX5r8e"

// GenerateCode returns a random confirmation code drawn from crypto/rand.
func GenerateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// HashCode creates a bcrypt hash of a confirmation code for storage.
func HashCode(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// VerifyCode reports whether code matches the stored hash. A nil hash never matches.
func VerifyCode(hashed *string, code string) bool {
	if hashed == nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(code))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*hashed), []byte(code)) == nil
}
