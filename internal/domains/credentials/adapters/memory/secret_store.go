package memory

import (
	"context"
	"sync"

	"github.com/Apurer/storelink-fic-sync/internal/domains/credentials/ports"
)

var _ ports.SecretStore = (*SecretStore)(nil)

// SecretStore keeps sealed values in memory for development and tests.
type SecretStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewSecretStore() *SecretStore {
	return &SecretStore{values: map[string]string{}}
}

func (s *SecretStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return value, nil
}

func (s *SecretStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *SecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Raw exposes the stored (sealed) value so tests can assert nothing is kept in plaintext.
func (s *SecretStore) Raw(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}
