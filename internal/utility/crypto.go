package utility

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32
)

// ErrMalformedHash is returned when a stored password hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// CryptoConfig holds configuration parameters for cryptographic operations.
type CryptoConfig struct {
	ArgonTime    uint32
	ArgonMemory  uint32
	ArgonThreads uint8
}

// DefaultCryptoConfig returns the default production configuration.
func DefaultCryptoConfig() CryptoConfig {
	return CryptoConfig{
		ArgonTime:    1,
		ArgonMemory:  64 * 1024, // 64 MB
		ArgonThreads: 4,
	}
}

// TestCryptoConfig returns a faster configuration suitable for testing.
func TestCryptoConfig() CryptoConfig {
	return CryptoConfig{
		ArgonTime:    1,
		ArgonMemory:  1024, // 1 MB - faster for tests
		ArgonThreads: 4,
	}
}

// cryptoConfig is the configuration used for new hashes.
// Access is protected by cryptoConfigMu for thread safety.
var (
	cryptoConfig   = DefaultCryptoConfig()
	cryptoConfigMu sync.RWMutex
)

func getCryptoConfig() CryptoConfig {
	cryptoConfigMu.RLock()
	defer cryptoConfigMu.RUnlock()
	return cryptoConfig
}

// setCryptoConfig sets the crypto configuration. This should only be used in tests.
func setCryptoConfig(cfg CryptoConfig) {
	cryptoConfigMu.Lock()
	defer cryptoConfigMu.Unlock()
	cryptoConfig = cfg
}

func deriveKey(password string, salt []byte, cfg CryptoConfig) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		cfg.ArgonTime,
		cfg.ArgonMemory,
		cfg.ArgonThreads,
		keyLen,
	)
}

// HashPassword derives an argon2id hash of password. The result is encoded as
// "v1:<time>:<memory>:<threads>:base64(salt|key)" so that verification does
// not depend on the current configuration.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}
	cfg := getCryptoConfig()
	key := deriveKey(password, salt, cfg)

	raw := make([]byte, 0, len(salt)+len(key))
	raw = append(raw, salt...)
	raw = append(raw, key...)

	return fmt.Sprintf("v1:%d:%d:%d:%s",
		cfg.ArgonTime, cfg.ArgonMemory, cfg.ArgonThreads,
		base64.StdEncoding.EncodeToString(raw)), nil
}

// VerifyPassword reports whether password matches the encoded hash.
func VerifyPassword(encoded, password string) (bool, error) {
	cfg, salt, key, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	got := deriveKey(password, salt, cfg)
	return subtle.ConstantTimeCompare(got, key) == 1, nil
}

func parseHash(encoded string) (CryptoConfig, []byte, []byte, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 5 || parts[0] != "v1" {
		return CryptoConfig{}, nil, nil, ErrMalformedHash
	}

	t, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || t == 0 {
		return CryptoConfig{}, nil, nil, ErrMalformedHash
	}
	m, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil || m == 0 {
		return CryptoConfig{}, nil, nil, ErrMalformedHash
	}
	p, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil || p == 0 {
		return CryptoConfig{}, nil, nil, ErrMalformedHash
	}

	raw, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return CryptoConfig{}, nil, nil, fmt.Errorf("b64: %w", err)
	}
	if len(raw) != saltLen+keyLen {
		return CryptoConfig{}, nil, nil, ErrMalformedHash
	}

	cfg := CryptoConfig{
		ArgonTime:    uint32(t),
		ArgonMemory:  uint32(m),
		ArgonThreads: uint8(p),
	}
	return cfg, raw[:saltLen], raw[saltLen:], nil
}
