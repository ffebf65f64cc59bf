package driven

import (
	"context"
	"errors"
)

// ErrCatalogNotFound is returned by CatalogStore.Get when no catalog has been
// stored yet.
var ErrCatalogNotFound = errors.New("catalog not found")

// CatalogStore defines the interface for persisting the serialized catalog.
// This is a driven port: the catalog is stored as a single opaque document
// under a fixed key, with no schema versioning.
type CatalogStore interface {
	// Get returns the stored document. Returns ErrCatalogNotFound if nothing
	// was stored yet.
	Get(ctx context.Context) ([]byte, error)

	// Set replaces the stored document.
	Set(ctx context.Context, document []byte) error

	// Ping checks if the store is accessible and operational.
	Ping(ctx context.Context) error
}
