package secret

import (
	"fmt"
	"sync"
)

// MemoryStore keeps secrets in process memory. Used where no keychain exists
// and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Backend names accepted by New.
const (
	BackendKeychain = "keychain"
	BackendMemory   = "memory"
)

// New returns the SecretStore for the named backend.
func New(backend string) (SecretStore, error) {
	switch backend {
	case BackendKeychain, "":
		return NewKeychainStore(DefaultKeychainService), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown secret backend: %s", backend)
	}
}
