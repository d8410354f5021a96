package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
)

// Vault seals values before they reach the secret store.
type Vault struct {
	store  ports.SecretStore
	cipher ports.Cipher
}

func NewVault(store ports.SecretStore, cipher ports.Cipher) *Vault {
	return &Vault{store: store, cipher: cipher}
}

// Save encrypts and persists value under key.
func (v *Vault) Save(ctx context.Context, key, value string) error {
	sealed, err := v.cipher.Encrypt(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return v.store.Put(ctx, key, sealed)
}

// Get returns the decrypted value and whether it was found.
func (v *Vault) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, err := v.store.Get(ctx, key)
	if errors.Is(err, ports.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	value, err := v.cipher.Decrypt(sealed)
	if err != nil {
		return "", false, fmt.Errorf("open %s: %w", key, err)
	}
	return value, true, nil
}

// Delete removes key. Missing keys are ignored.
func (v *Vault) Delete(ctx context.Context, key string) error {
	return v.store.Delete(ctx, key)
}
