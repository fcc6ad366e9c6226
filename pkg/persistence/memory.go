package persistence

import (
	"fmt"
	"sync"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// MemoryStorage keeps values in a map. Data is lost when the process exits.
// All methods are safe for concurrent use.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[datamodel.ConcreteAttributePath][]byte

	// FailWrites makes WriteValue return this error when set. Tests use it
	// to exercise best-effort persistence paths.
	FailWrites error
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[datamodel.ConcreteAttributePath][]byte)}
}

// ReadValue implements datamodel.AttributeStorage.
func (m *MemoryStorage) ReadValue(path datamodel.ConcreteAttributePath) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, datamodel.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

// WriteValue implements datamodel.AttributeStorage.
func (m *MemoryStorage) WriteValue(path datamodel.ConcreteAttributePath, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.values[path] = append([]byte(nil), value...)
	return nil
}

// Len returns the number of stored values.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close implements Storage.
func (m *MemoryStorage) Close() error { return nil }
