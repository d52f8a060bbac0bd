package boltdb

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/fastygo/focus/domain"
)

func openTestStore(t *testing.T) *BlobStore {
	t.Helper()
	store, err := OpenBlobStore(filepath.Join(t.TempDir(), "blobs.db"))
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBlobStorePutGetDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ref, err := store.Put(ctx, "user-1/proof_1.jpg", "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ref != "proof_images/user-1/proof_1.jpg" {
		t.Fatalf("unexpected ref %q", ref)
	}

	blob, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if blob.ContentType != "image/jpeg" || !bytes.Equal(blob.Data, []byte{0xff, 0xd8}) {
		t.Fatalf("unexpected blob %+v", blob)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, err := store.Get(ctx, ref); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND after delete, got %v", err)
	}
}

func TestBlobStoreRejectsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	if _, err := store.Put(ctx, "u/a.jpg", "image/jpeg", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Put(ctx, "u/a.jpg", "image/jpeg", []byte("b")); !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}
