// Package storage abstracts the object store export files are written to.
package storage

import (
	"context"
	"time"
)

// ObjectStore writes export artifacts and hands out retrieval URLs. Exports
// are written to storage before any ledger mutation, so a failed write leaves
// the session untouched.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	RetrievalURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
