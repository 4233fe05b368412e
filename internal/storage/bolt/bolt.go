package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/storage"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Store = (*Store)(nil)

var (
	bucketVAPID       = []byte("vapid")
	bucketDeliveryLog = []byte("delivery_logs")
	keyPairKey        = []byte("current")
)

// Store is a BoltDB-backed Store implementation.
type Store struct {
	db *bolt.DB
}

// New initialises the Bolt store.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketVAPID); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketDeliveryLog)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes underlying Bolt DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetKeyPair returns the persisted VAPID key pair or storage.ErrNotFound.
func (s *Store) GetKeyPair(ctx context.Context) (*model.KeyPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys *model.KeyPair
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketVAPID).Get(keyPairKey)
		if raw == nil {
			return storage.ErrNotFound
		}
		var kp model.KeyPair
		if err := json.Unmarshal(raw, &kp); err != nil {
			return err
		}
		keys = &kp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// SaveKeyPair replaces the persisted VAPID key pair.
func (s *Store) SaveKeyPair(ctx context.Context, keys *model.KeyPair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if keys.CreatedAt.IsZero() {
		keys.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVAPID).Put(keyPairKey, payload)
	})
}

// AppendDeliveryLog stores a delivery attempt.
func (s *Store) AppendDeliveryLog(ctx context.Context, log *model.DeliveryLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDeliveryLog)
		id, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		log.ID = id
		payload, err := json.Marshal(log)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, id)
		return bkt.Put(key, payload)
	})
}

// ListDeliveryLogs returns all delivery logs in insertion order.
func (s *Store) ListDeliveryLogs(ctx context.Context) ([]*model.DeliveryLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var logs []*model.DeliveryLog
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDeliveryLog)
		return bkt.ForEach(func(_, v []byte) error {
			var log model.DeliveryLog
			if err := json.Unmarshal(v, &log); err != nil {
				return err
			}
			copied := log
			logs = append(logs, &copied)
			return nil
		})
	})
	return logs, err
}
