package driven

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	port "github.com/alorle/iptv-catalog/internal/port/driven"
)

const (
	catalogBucket = "catalog"
	catalogKey    = "iptv-channels"
)

// CatalogBoltDBStore implements the CatalogStore port using BoltDB.
// The whole catalog lives under a single key.
type CatalogBoltDBStore struct {
	db *bbolt.DB
}

// NewCatalogBoltDBStore creates a new BoltDB-backed catalog store.
// It initializes the required bucket if it doesn't exist.
func NewCatalogBoltDBStore(db *bbolt.DB) (*CatalogBoltDBStore, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(catalogBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &CatalogBoltDBStore{db: db}, nil
}

// Get returns a copy of the stored catalog document.
func (s *CatalogBoltDBStore) Get(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var document []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogBucket))
		if bucket == nil {
			return errors.New("catalog bucket not found")
		}

		data := bucket.Get([]byte(catalogKey))
		if data == nil {
			return port.ErrCatalogNotFound
		}

		// bbolt memory is only valid inside the transaction
		document = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// Set replaces the stored catalog document.
func (s *CatalogBoltDBStore) Set(ctx context.Context, document []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogBucket))
		if bucket == nil {
			return errors.New("catalog bucket not found")
		}

		if err := bucket.Put([]byte(catalogKey), document); err != nil {
			return fmt.Errorf("storing catalog: %w", err)
		}
		return nil
	})
}

// Ping checks that the database is readable.
func (s *CatalogBoltDBStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(catalogBucket)) == nil {
			return errors.New("catalog bucket not found")
		}
		return nil
	})
}
