package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type blobRecord struct {
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlobStore keeps proof payloads in a bbolt bucket keyed by "<user>/<file>".
type BlobStore struct {
	db     *bolt.DB
	bucket []byte
}

var _ repository.BlobStore = (*BlobStore)(nil)

// OpenBlobStore initializes the bbolt file and ensures the bucket exists.
func OpenBlobStore(path string) (*BlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	bucket := []byte("proof_images")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &BlobStore{db: db, bucket: bucket}, nil
}

// Put stores data under key. Existing keys are rejected so a reference never
// silently changes content.
func (s *BlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s == nil || s.db == nil {
		return "", domain.Unavailable("blob store closed", bolt.ErrDatabaseNotOpen)
	}
	key = strings.Trim(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", domain.Invalid("invalid blob key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return "", domain.Unavailable("request canceled", err)
	}

	payload, err := json.Marshal(blobRecord{ContentType: contentType, Data: data, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(key)) != nil {
			return domain.NewError(domain.ErrCodeConflict, "blob already exists")
		}
		return b.Put([]byte(key), payload)
	})
	if err != nil {
		return "", err
	}
	return repository.BlobRefPrefix + key, nil
}

// Get loads the payload referenced by ref.
func (s *BlobStore) Get(ctx context.Context, ref string) (*repository.Blob, error) {
	if s == nil || s.db == nil {
		return nil, domain.Unavailable("blob store closed", bolt.ErrDatabaseNotOpen)
	}
	key, ok := repository.BlobKey(ref)
	if !ok {
		return nil, domain.ErrProofNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.Unavailable("request canceled", err)
	}

	var rec *blobRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(key))
		if raw == nil {
			return domain.ErrProofNotFound
		}
		rec = &blobRecord{}
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, err
	}
	return &repository.Blob{Ref: ref, ContentType: rec.ContentType, Data: rec.Data}, nil
}

// Delete removes ref. Deleting a missing blob is not an error.
func (s *BlobStore) Delete(ctx context.Context, ref string) error {
	if s == nil || s.db == nil {
		return domain.Unavailable("blob store closed", bolt.ErrDatabaseNotOpen)
	}
	key, ok := repository.BlobKey(ref)
	if !ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return domain.Unavailable("request canceled", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Ping is used by the connection monitor.
func (s *BlobStore) Ping() error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return errors.New("proof bucket missing")
		}
		return nil
	})
}

// Close closes the Bolt database.
func (s *BlobStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
