package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

var randomRead = rand.Read

// RandomHex returns n random hex characters.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bytes := make([]byte, (n+1)/2)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes)[:n], nil
}
