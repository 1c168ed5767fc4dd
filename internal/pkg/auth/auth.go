// Package auth implements serve-mode API keys. A key is "<id>.<secret>";
// only the bcrypt hash of the secret is stored.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// GenerateKey creates a new API key. The full key is shown once at creation;
// afterwards only the hash can be checked.
func GenerateKey() (id, secret, full string, err error) {
	id, err = randomToken(8)
	if err != nil {
		return "", "", "", err
	}
	secret, err = randomToken(24)
	if err != nil {
		return "", "", "", err
	}
	return id, secret, id + "." + secret, nil
}

// HashSecret hashes the secret part of a key for storage.
func HashSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

// VerifySecret checks a presented secret against a stored hash.
func VerifySecret(hash []byte, secret string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

// SplitKey separates a presented key into its ID and secret.
func SplitKey(key string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(key, ".")
	if !ok || id == "" || secret == "" {
		return "", "", fmt.Errorf("malformed API key")
	}
	return id, secret, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano()), err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
