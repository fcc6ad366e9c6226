package persistence

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

// FileStorage keeps all values in one JSON document that is rewritten
// atomically on every write, so a crash leaves either the old or the new
// file behind.
type FileStorage struct {
	path string

	mu     sync.Mutex
	values map[string]string // Key(path) -> base64 value
}

// OpenFile loads the document at path, or starts empty if it does not exist.
func OpenFile(path string) (*FileStorage, error) {
	s := &FileStorage{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("persistence: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("persistence: parse %s: %w", path, err)
	}
	for k := range s.values {
		if _, err := ParseKey(k); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ReadValue implements datamodel.AttributeStorage.
func (s *FileStorage) ReadValue(path datamodel.ConcreteAttributePath) ([]byte, error) {
	s.mu.Lock()
	enc, ok := s.values[Key(path)]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, datamodel.ErrNotFound)
	}
	v, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return v, nil
}

// WriteValue implements datamodel.AttributeStorage.
func (s *FileStorage) WriteValue(path datamodel.ConcreteAttributePath, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(path)
	prev, had := s.values[key]
	s.values[key] = base64.StdEncoding.EncodeToString(value)
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStorage) flush() error {
	data, err := json.MarshalIndent(s.values, "", "    ")
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(s.path, bytes.NewBuffer(data)); err != nil {
		return fmt.Errorf("persistence: write %s: %w", s.path, err)
	}
	return nil
}

// Close implements Storage. Every write is already on disk.
func (s *FileStorage) Close() error { return nil }
