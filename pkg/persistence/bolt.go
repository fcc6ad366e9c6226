package persistence

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/backkem/matter-dimmer/pkg/datamodel"
)

var bucketAttributes = []byte("attributes")

// BoltStorage keeps attribute values in a bbolt database, one key per path
// in the "attributes" bucket.
type BoltStorage struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("persistence: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAttributes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persistence: create bucket: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

// ReadValue implements datamodel.AttributeStorage.
func (s *BoltStorage) ReadValue(path datamodel.ConcreteAttributePath) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		v := b.Get([]byte(Key(path)))
		if v == nil {
			return fmt.Errorf("%s: %w", path, datamodel.ErrNotFound)
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// WriteValue implements datamodel.AttributeStorage.
func (s *BoltStorage) WriteValue(path datamodel.ConcreteAttributePath, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		return b.Put([]byte(Key(path)), value)
	})
}

// Delete removes the value stored at path, if any.
func (s *BoltStorage) Delete(path datamodel.ConcreteAttributePath) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(Key(path)))
	})
}

// Paths lists every stored path in key order.
func (s *BoltStorage) Paths() ([]datamodel.ConcreteAttributePath, error) {
	var paths []datamodel.ConcreteAttributePath
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			p, err := ParseKey(string(k))
			if err != nil {
				return err
			}
			paths = append(paths, p)
			return nil
		})
	})
	return paths, err
}

// Close closes the database.
func (s *BoltStorage) Close() error {
	return s.db.Close()
}
