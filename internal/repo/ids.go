package repo

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewCommitID generates a fresh working-copy commit identifier.
// Commit ids are opaque to the workspace machinery; 16 hex characters
// keeps them short enough to read while avoiding collisions.
func NewCommitID() (string, error) {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate commit id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
