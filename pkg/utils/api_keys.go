package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// ApiKeyPrefix tells personal access tokens apart from JWTs in the
// Authorization header.
const ApiKeyPrefix = "mp_"

func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func GenerateApiKey() (string, error) {
	key, err := GenerateRandomKey(24)
	if err != nil {
		return "", err
	}
	return ApiKeyPrefix + key, nil
}

func IsApiKey(token string) bool {
	return strings.HasPrefix(token, ApiKeyPrefix)
}

// HashApiKey is what gets stored and looked up; the plain key never is.
func HashApiKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
