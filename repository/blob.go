package repository

import (
	"context"
	"strings"
)

// Blob is an opaque stored payload.
type Blob struct {
	Ref         string
	ContentType string
	Data        []byte
}

// BlobStore keeps proof artifacts. Refs are durable and retrievable.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, ref string) (*Blob, error)
	Delete(ctx context.Context, ref string) error
}

// BlobRefPrefix starts every reference a BlobStore hands out.
const BlobRefPrefix = "proof_images/"

// BlobKey extracts the store key from a reference. It accepts bare refs
// ("proof_images/u/f.jpg") and URLs containing "/proof_images/".
func BlobKey(ref string) (string, bool) {
	if i := strings.Index(ref, "/"+BlobRefPrefix); i >= 0 {
		ref = ref[i+1:]
	}
	if !strings.HasPrefix(ref, BlobRefPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(ref, BlobRefPrefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
