package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Hash derives a bcrypt hash for a sync key. Keys shorter than 8 characters
// are rejected outright.
func Hash(key string) (string, error) {
	if len(key) < 8 {
		return "", fmt.Errorf("sync key must be at least 8 characters")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash sync key: %w", err)
	}

	return string(hashedBytes), nil
}

func Verify(hashedKey, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
}
