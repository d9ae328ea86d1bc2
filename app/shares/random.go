package shares

import (
	"crypto/rand"
	"fmt"
)

// RandomSource supplies random bytes for share generation. The default
// implementation is a CSPRNG; anything weaker invalidates the one-time-pad
// property of the split. Injected so tests can use deterministic sequences.
type RandomSource interface {
	Bytes(n int) ([]byte, error)
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

// Bytes returns n cryptographically random bytes.
func (CryptoSource) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}
