package queue

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/database"
	"github.com/Mepiyou/myfirstfront/internal/models"
	"github.com/Mepiyou/myfirstfront/internal/notify"
)

// Store durably records mutating HTTP requests that could not be
// completed immediately. Operations survive restarts and are drained in
// FIFO enqueue order by the synchronizer.
//
// There is deliberately no bound, no deduplication and no coalescing:
// the same logical edit queued twice replays twice.
type Store struct {
	db       *bolt.DB
	notifier notify.Notifier
	log      *zap.Logger
}

func NewStore(db *bolt.DB, notifier notify.Notifier, log *zap.Logger) *Store {
	return &Store{db: db, notifier: notifier, log: log}
}

// Enqueue appends one operation and returns it with its fresh
// identifier assigned. Identifiers come from the bucket sequence, so
// they are unique and strictly increasing for the life of the store.
//
// The append is transactional: when this returns nil the operation is
// on disk; when it returns an error nothing was recorded and the caller
// must surface the failure rather than pretend the write was saved.
func (s *Store) Enqueue(url, method string, headers map[string]string, body models.OperationBody) (models.QueuedOperation, error) {
	op := models.QueuedOperation{
		URL:        url,
		Method:     method,
		Headers:    headers,
		Body:       body,
		EnqueuedAt: time.Now().UTC(),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(database.BucketQueue)
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("assign operation id: %w", err)
		}
		op.ID = id

		raw, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("encode operation: %w", err)
		}
		return b.Put(key(id), raw)
	})
	if err != nil {
		return models.QueuedOperation{}, err
	}

	s.log.Info("queued operation for later sync",
		zap.Uint64("id", op.ID),
		zap.String("method", method),
		zap.String("url", url),
		zap.Bool("multipart", body.IsMultipart()),
	)
	s.notifier.Notify("You are offline — action saved and will sync automatically", true)
	return op, nil
}

// ListPending returns every queued operation in enqueue order.
func (s *Store) ListPending() ([]models.QueuedOperation, error) {
	var ops []models.QueuedOperation
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(database.BucketQueue).ForEach(func(k, v []byte) error {
			var op models.QueuedOperation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("decode operation %d: %w", binary.BigEndian.Uint64(k), err)
			}
			ops = append(ops, op)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}

// Remove deletes one operation after a confirmed-successful replay.
// Removing an unknown id is a no-op.
func (s *Store) Remove(id uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(database.BucketQueue).Delete(key(id))
	})
}

// Len reports the number of pending operations.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(database.BucketQueue).Stats().KeyN
		return nil
	})
	return n, err
}

// Big-endian keys keep bucket iteration in ID order.
func key(id uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], id)
	return k[:]
}
