package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"sagachat/go-backend/pkg/models"
)

var keysBucket = []byte("encryption_keys")

var ErrStoreClosed = errors.New("registry store is closed")

// BoltStore keeps one JSON-encoded RegistryEntry per wallet in a single bucket.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(keysBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) Lookup(ctx context.Context, walletAddress string) (models.RegistryEntry, bool, error) {
	walletAddress, err := normalizeLookup(walletAddress)
	if err != nil {
		return models.RegistryEntry{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return models.RegistryEntry{}, false, err
	}
	var (
		entry models.RegistryEntry
		found bool
	)
	err = s.db.View(func(tx *bolt.Tx) error {
		row := tx.Bucket(keysBucket).Get([]byte(walletAddress))
		if row == nil {
			return nil
		}
		found = true
		return json.Unmarshal(row, &entry)
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return models.RegistryEntry{}, false, ErrStoreClosed
	}
	if err != nil {
		return models.RegistryEntry{}, false, err
	}
	return entry, found, nil
}

func (s *BoltStore) Publish(ctx context.Context, walletAddress string, key [32]byte) (models.PublishResult, error) {
	walletAddress, err := validatePublish(walletAddress, key)
	if err != nil {
		return models.PublishResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.PublishResult{}, err
	}
	var res models.PublishResult
	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(keysBucket)
		var prev *models.RegistryEntry
		if row := bucket.Get([]byte(walletAddress)); row != nil {
			var existing models.RegistryEntry
			if err := json.Unmarshal(row, &existing); err != nil {
				return err
			}
			prev = &existing
		}
		var next models.RegistryEntry
		next, res = apply(prev, walletAddress, key, s.now())
		if res.Unchanged {
			return nil
		}
		row, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(walletAddress), row)
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return models.PublishResult{}, ErrStoreClosed
	}
	if err != nil {
		return models.PublishResult{}, err
	}
	return res, nil
}
