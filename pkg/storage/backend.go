// Package storage provides small bucketed key-value backends used to keep
// run history. Values are raw bytes; JSON helpers live in json.go.
package storage

import (
	"errors"
	"time"
)

// ErrBucketNotFound is returned when an operation names a missing bucket.
var ErrBucketNotFound = errors.New("bucket not found")

// Backend is a bucketed key-value store.
type Backend interface {
	CreateBucket(name []byte) error
	BucketExists(name []byte) (bool, error)

	Put(bucket, key, value []byte) error
	// Get returns nil, nil for a missing key.
	Get(bucket, key []byte) ([]byte, error)
	Delete(bucket, key []byte) error

	// ForEach visits keys in ascending byte order. Slices passed to fn are
	// only valid during the call.
	ForEach(bucket []byte, fn func(k, v []byte) error) error

	Close() error
}

// MemoryPath selects the in-memory backend in Open.
const MemoryPath = ":memory:"

// Open returns a bbolt backend at path, or a memory backend for MemoryPath.
// timeout bounds how long Open waits for another process holding the file.
func Open(path string, timeout time.Duration) (Backend, error) {
	if path == MemoryPath {
		return NewMemoryBackend(), nil
	}

	return NewBboltBackend(path, timeout)
}
