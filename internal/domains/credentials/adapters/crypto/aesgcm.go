package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
)

// DefaultSalt is mixed with the installation id when deriving the key.
const DefaultSalt = "FIC-SYNC-2025"

const keyLength = 32

var _ ports.Cipher = (*AESGCM)(nil)

// ErrDecrypt is returned for tampered, truncated, or foreign ciphertexts.
var ErrDecrypt = errors.New("unable to decrypt secret")

// AESGCM seals secrets with AES-256-GCM under a key derived from the installation id.
type AESGCM struct {
	aead cipher.AEAD
	rand io.Reader
}

// DeriveKey stretches installationID and salt into a 32-byte key with Argon2id.
func DeriveKey(installationID, salt string) []byte {
	return argon2.IDKey([]byte(installationID), []byte(salt), 1, 64*1024, 4, keyLength)
}

// NewAESGCM builds a cipher bound to the given installation.
func NewAESGCM(installationID, salt string) (*AESGCM, error) {
	if strings.TrimSpace(installationID) == "" {
		return nil, errors.New("installation id is required")
	}
	if salt == "" {
		salt = DefaultSalt
	}
	return NewAESGCMWithKey(DeriveKey(installationID, salt))
}

// NewAESGCMWithKey builds a cipher from raw key bytes.
func NewAESGCMWithKey(key []byte) (*AESGCM, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("key must be %d bytes, got %d", keyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &AESGCM{aead: aead, rand: rand.Reader}, nil
}

// Encrypt returns base64(nonce || ciphertext). The empty string maps to itself.
func (c *AESGCM) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *AESGCM) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", ErrDecrypt
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	return string(plain), nil
}
