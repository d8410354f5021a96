package ports

import (
	"context"
	"errors"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/domain"
)

// ErrNotFound is returned by secret stores when the key has never been saved.
var ErrNotFound = errors.New("secret not found")

// SecretStore persists opaque (already encrypted) values by key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Cipher turns plaintext into a storable string and back.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ConnectionTester performs a cheap authenticated call against the remote service.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

// CredentialSource hands out the current credential pair.
type CredentialSource interface {
	Load(ctx context.Context) (domain.Credential, error)
}
