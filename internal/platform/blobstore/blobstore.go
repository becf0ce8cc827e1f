// Package blobstore stores evidence documents and returns a fetchable URL.
package blobstore

import (
	"context"
	"errors"
)

// ErrEmptyObject is returned for zero-length uploads.
var ErrEmptyObject = errors.New("blobstore: empty object")

// Object is a stored blob. Key is what Delete expects back.
type Object struct {
	Key string
	URL string
}

// Store is the external document store.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (Object, error)
	Delete(ctx context.Context, key string) error
}
