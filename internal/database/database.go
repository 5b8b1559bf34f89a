package database

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names inside the local store. State and cart are plain
// key-value namespaces; the sync queue holds one multi-field record per
// queued operation, keyed by its auto-assigned identifier.
var (
	BucketState = []byte("state")
	BucketCart  = []byte("cart")
	BucketQueue = []byte("sync_queue")
)

// Open initializes the client-local store at path and makes sure every
// bucket exists. An open failure must propagate to the caller: nothing
// may be accepted or reported as persisted unless the store is usable.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{BucketState, BucketCart, BucketQueue} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// GetState reads a single key from the state bucket. A missing key
// returns nil, not an error.
func GetState(db *bolt.DB, key string) ([]byte, error) {
	var out []byte
	err := db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(BucketState).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// PutState writes a single key into the state bucket.
func PutState(db *bolt.DB, key string, value []byte) error {
	return db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketState).Put([]byte(key), value)
	})
}

// DeleteState removes a key from the state bucket. Deleting a missing
// key is a no-op.
func DeleteState(db *bolt.DB, key string) error {
	return db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketState).Delete([]byte(key))
	})
}
