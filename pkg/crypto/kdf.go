package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands secret into a length-byte subkey bound to purpose using
// HKDF-SHA256. Distinct purposes yield independent keys from one secret.
func DeriveKey(secret []byte, purpose string, length int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("hkdf: secret is required")
	}
	if purpose == "" {
		return nil, fmt.Errorf("hkdf: purpose is required")
	}
	if length <= 0 || length > 255*sha256.Size {
		return nil, fmt.Errorf("hkdf: invalid key length %d", length)
	}

	key := make([]byte, length)
	reader := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("hkdf: derive key: %w", err)
	}
	return key, nil
}
