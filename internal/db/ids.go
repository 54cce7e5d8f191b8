package db

import (
	"crypto/rand"
	"encoding/hex"
)

const idPrefix = "hf-"

// generateID generates a unique hotfix row ID
func generateID() (string, error) {
	bytes := make([]byte, 8) // 16 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return idPrefix + hex.EncodeToString(bytes), nil
}
