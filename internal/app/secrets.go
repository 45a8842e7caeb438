package app

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	minSecretBytes    = 32
	masterSecretBytes = 48
)

var errEmptySecret = errors.New("key value is empty")

// Hex comes first because generated master secrets are hex encoded.
var secretDecoders = []func(string) ([]byte, error){
	hex.DecodeString,
	base64.StdEncoding.DecodeString,
	base64.RawStdEncoding.DecodeString,
}

// DecodeKey decodes a hex or base64 secret to raw bytes. Values in neither
// encoding are used as-is.
func DecodeKey(value string) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, errEmptySecret
	}
	for _, decode := range secretDecoders {
		if decoded, err := decode(v); err == nil {
			return decoded, nil
		}
	}
	return []byte(v), nil
}

// KeyByteLength returns the decoded length of a secret; blank values are zero.
func KeyByteLength(value string) (int, error) {
	decoded, err := DecodeKey(value)
	if errors.Is(err, errEmptySecret) {
		return 0, nil
	}
	return len(decoded), err
}

// ApplyRuntimeDefaults fills in a master secret when none is configured and
// reports which keys it generated so callers can log the event without the
// value. A generated secret lives only for the process, so issued tokens stop
// verifying after a restart.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)
	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := generateHexKey(masterSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}
	return generated, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
