package kv

import "github.com/kai-tanaka-dev/SecretSphere/core/store"

// bucketSnapshot adapts a bucket to the store.Snapshot interface so that a
// contract can be executed directly on top of the database.
//
// - implements store.Snapshot
type bucketSnapshot struct {
	bucket Bucket
}

// NewSnapshot wraps the bucket into a snapshot. The writes are visible to the
// underlying database transaction only, so aborting the transaction discards
// them.
func NewSnapshot(bucket Bucket) store.Snapshot {
	return bucketSnapshot{bucket: bucket}
}

// Get implements store.Readable.
func (s bucketSnapshot) Get(key []byte) ([]byte, error) {
	return s.bucket.Get(key), nil
}

// Set implements store.Writable.
func (s bucketSnapshot) Set(key, value []byte) error {
	return s.bucket.Set(key, value)
}

// Delete implements store.Writable.
func (s bucketSnapshot) Delete(key []byte) error {
	return s.bucket.Delete(key)
}
