package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewInviteToken returns a fresh unguessable token for invitation links.
// 32 random bytes, hex encoded.
func NewInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
