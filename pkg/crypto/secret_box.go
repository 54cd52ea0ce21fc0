package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-jose/go-jose/v3"
	"golang.org/x/crypto/hkdf"
)

const secretBoxInfo = "payu-credential-secret"

var ErrEmptyKey = errors.New("credential encryption key is empty")

// SecretBox seals credential secrets as compact JWE (dir + A256GCM).
type SecretBox struct {
	key []byte
}

// NewSecretBox derives a 256 bit content key from the configured passphrase.
func NewSecretBox(passphrase string) (*SecretBox, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, ErrEmptyKey
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte(secretBoxInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return &SecretBox{key: key}, nil
}

// Seal encrypts plaintext and returns the compact serialization.
func (b *SecretBox) Seal(plaintext string) (string, error) {
	enc, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: jose.DIRECT, Key: b.key}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build encrypter: %w", err)
	}
	obj, err := enc.Encrypt([]byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return obj.CompactSerialize()
}

// Open decrypts a value produced by Seal.
func (b *SecretBox) Open(sealed string) (string, error) {
	obj, err := jose.ParseEncrypted(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to parse sealed secret: %w", err)
	}
	plain, err := obj.Decrypt(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

// Mask keeps the last four characters of a secret for display.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
