package datamodel

import "errors"

// ErrNotFound is returned by AttributeStorage when no value is stored at a path.
var ErrNotFound = errors.New("not found")

// AttributeStorage is durable key/value storage for attribute values keyed
// by concrete attribute path. Values are opaque byte blobs whose encoding
// belongs to the owning cluster.
type AttributeStorage interface {
	// ReadValue returns the stored value or an error wrapping ErrNotFound.
	ReadValue(path ConcreteAttributePath) ([]byte, error)

	// WriteValue stores value at path, replacing any previous value.
	WriteValue(path ConcreteAttributePath, value []byte) error
}
