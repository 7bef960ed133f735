package repository

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hudeditor/hudstore/internal/domain/entities"
)

var bucketDocuments = []byte("documents")

// BoltRepository stores documents in a bbolt database, one key per slot in
// the "documents" bucket. Every save is its own transaction.
type BoltRepository struct {
	db *bolt.DB
}

// NewBoltRepository opens (or creates) a bbolt database at the given path.
func NewBoltRepository(path string, openTimeout time.Duration) (*BoltRepository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDocuments); err != nil {
			return fmt.Errorf("could not ensure bucket %q exists: %w", bucketDocuments, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketDocuments).Put([]byte(slot), content); err != nil {
			return fmt.Errorf("could not put %q: %w", slot, err)
		}
		return nil
	})
}

func (r *BoltRepository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var content []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketDocuments).Get([]byte(slot))
		if v == nil {
			return fmt.Errorf("%q: %w", slot, entities.ErrDocumentNotFound)
		}
		// bbolt slices are only valid within the transaction
		content = dup(v)
		return nil
	})
	return content, err
}

func (r *BoltRepository) Ping(ctx context.Context) error {
	return r.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketDocuments) == nil {
			return fmt.Errorf("bucket %q missing", bucketDocuments)
		}
		return nil
	})
}

// Close closes the underlying bbolt database.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
