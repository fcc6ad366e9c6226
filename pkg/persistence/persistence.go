// Package persistence provides datamodel.AttributeStorage implementations
// and the value codecs clusters use for their non-volatile attributes.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

var (
	// ErrInvalidValue is returned when a stored blob has the wrong shape.
	ErrInvalidValue = errors.New("persistence: invalid stored value")

	// ErrInvalidKey is returned when a stored key cannot be parsed.
	ErrInvalidKey = errors.New("persistence: invalid key")

	// ErrUnsupportedBackend is returned by Open for unknown file types.
	ErrUnsupportedBackend = errors.New("persistence: unsupported backend")
)

// Storage is an AttributeStorage that owns resources.
type Storage interface {
	datamodel.AttributeStorage
	Close() error
}

// Open returns the backend matching path: memory for "", bbolt for
// ".db", and an atomically rewritten JSON file for ".json".
func Open(path string) (Storage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		if path == "" {
			return NewMemoryStorage(), nil
		}
	case ".db", ".bolt":
		return OpenBolt(path)
	case ".json":
		return OpenFile(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, path)
}

// Key renders a path as "eeee/cccccccc/aaaaaaaa" in lowercase hex.
func Key(path datamodel.ConcreteAttributePath) string {
	return fmt.Sprintf("%04x/%08x/%08x", uint16(path.Endpoint), uint32(path.Cluster), uint32(path.Attribute))
}

// ParseKey is the inverse of Key.
func ParseKey(key string) (datamodel.ConcreteAttributePath, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 {
		return datamodel.ConcreteAttributePath{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	var n [3]uint64
	sizes := [3]int{16, 32, 32}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, sizes[i])
		if err != nil {
			return datamodel.ConcreteAttributePath{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		n[i] = v
	}
	return datamodel.ConcreteAttributePath{
		Endpoint:  datamodel.EndpointID(n[0]),
		Cluster:   datamodel.ClusterID(n[1]),
		Attribute: datamodel.AttributeID(n[2]),
	}, nil
}

const (
	nullUint8  = 0xFF
	nullUint16 = 0xFFFF
)

// EncodeNullableUint8 stores null as 0xFF, the Matter null sentinel for u8.
func EncodeNullableUint8(v *uint8) []byte {
	if v == nil {
		return []byte{nullUint8}
	}
	return []byte{*v}
}

// DecodeNullableUint8 reverses EncodeNullableUint8.
func DecodeNullableUint8(b []byte) (*uint8, error) {
	if len(b) != 1 {
		return nil, ErrInvalidValue
	}
	if b[0] == nullUint8 {
		return nil, nil
	}
	v := b[0]
	return &v, nil
}

// EncodeNullableUint16 stores null as 0xFFFF, little-endian.
func EncodeNullableUint16(v *uint16) []byte {
	b := make([]byte, 2)
	if v == nil {
		binary.LittleEndian.PutUint16(b, nullUint16)
	} else {
		binary.LittleEndian.PutUint16(b, *v)
	}
	return b
}

// DecodeNullableUint16 reverses EncodeNullableUint16.
func DecodeNullableUint16(b []byte) (*uint16, error) {
	if len(b) != 2 {
		return nil, ErrInvalidValue
	}
	v := binary.LittleEndian.Uint16(b)
	if v == nullUint16 {
		return nil, nil
	}
	return &v, nil
}

// EncodeBool stores a boolean as one byte.
func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// DecodeBool reverses EncodeBool.
func DecodeBool(b []byte) (bool, error) {
	if len(b) != 1 || b[0] > 1 {
		return false, ErrInvalidValue
	}
	return b[0] == 1, nil
}
