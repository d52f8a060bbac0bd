package proof

import (
	"bytes"
	"context"
	"encoding/base64"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/repository/boltdb"
	"github.com/fastygo/focus/repository/sqlite"
)

type recordingBuffer struct {
	deleted []string
}

func (b *recordingBuffer) BufferStreakRecompute(context.Context, string) error { return nil }

func (b *recordingBuffer) BufferBlobDelete(_ context.Context, _ string, ref string) error {
	b.deleted = append(b.deleted, ref)
	return nil
}

type fixture struct {
	uc       *UseCase
	sessions repository.FocusSessionRepository
	blobs    *boltdb.BlobStore
	buffer   *recordingBuffer
}

var (
	alice = domain.Identity{UserID: "alice"}
	bob   = domain.Identity{UserID: "bob"}
	now   = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(filepath.Join(dir, "focus.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	blobs, err := boltdb.OpenBlobStore(filepath.Join(dir, "blobs.db"))
	if err != nil {
		t.Fatalf("open blobs: %v", err)
	}
	t.Cleanup(func() { _ = blobs.Close() })

	f := &fixture{
		sessions: sqlite.NewSessionRepository(db),
		blobs:    blobs,
		buffer:   &recordingBuffer{},
	}
	f.uc = New(f.sessions, blobs, f.buffer, clock.Func(func() time.Time { return now }), zaptest.NewLogger(t))
	return f
}

func (f *fixture) session(t *testing.T, owner domain.Identity) *domain.FocusSession {
	t.Helper()
	s, err := f.sessions.Create(context.Background(), &domain.FocusSession{UserID: owner.UserID, StartTime: now})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func TestAttachAndRemoveProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, alice)

	for _, ref := range []string{"a.jpg", "b.jpg", "a.jpg"} {
		if _, err := f.uc.AttachProof(ctx, alice, s.ID, ref); err != nil {
			t.Fatalf("attach %s: %v", ref, err)
		}
	}

	got, err := f.uc.RemoveProof(ctx, alice, s.ID, "a.jpg")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if want := []string{"a.jpg", "b.jpg"}; !reflect.DeepEqual(got.ProofPhotos, want) {
		t.Fatalf("proofs = %v, want %v", got.ProofPhotos, want)
	}

	unchanged, err := f.uc.RemoveProof(ctx, alice, s.ID, "missing.jpg")
	if err != nil {
		t.Fatalf("remove missing: %v", err)
	}
	if !reflect.DeepEqual(unchanged.ProofPhotos, got.ProofPhotos) {
		t.Fatalf("absent ref changed the list: %v", unchanged.ProofPhotos)
	}
}

func TestAttachProofErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, alice)

	if _, err := f.uc.AttachProof(ctx, alice, s.ID, "  "); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.uc.AttachProof(ctx, alice, "missing", "a.jpg"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.uc.AttachProof(ctx, bob, s.ID, "a.jpg"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
}

func TestAttachProofToEndedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, alice)
	if _, err := f.sessions.Close(ctx, alice.UserID, s.ID, now.Add(time.Minute), true); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := f.uc.AttachProof(ctx, alice, s.ID, "late.jpg")
	if err != nil {
		t.Fatalf("attach after end: %v", err)
	}
	if len(got.ProofPhotos) != 1 || got.Status() != domain.SessionCompleted {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestUploadAndOpenProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, alice)

	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	payload := []byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw))

	got, err := f.uc.UploadProof(ctx, alice, s.ID, payload, "", "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	wantRef := "proof_images/alice/proof_" + "1773478800000" + ".jpg"
	if len(got.ProofPhotos) != 1 || got.ProofPhotos[0] != wantRef {
		t.Fatalf("proofs = %v, want [%s]", got.ProofPhotos, wantRef)
	}

	blob, err := f.uc.OpenProof(ctx, alice, wantRef)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(blob.Data, raw) || blob.ContentType != "image/png" {
		t.Fatalf("blob = %q (%s), want decoded bytes", blob.Data, blob.ContentType)
	}

	if _, err := f.uc.OpenProof(ctx, bob, wantRef); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found for another owner, got %v", err)
	}
	if _, err := f.uc.UploadProof(ctx, bob, s.ID, raw, "image/jpeg", "x.jpg"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("expected not found uploading to a foreign session, got %v", err)
	}
	if _, err := f.uc.UploadProof(ctx, alice, s.ID, raw, "image/jpeg", "../x.jpg"); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error for path file name, got %v", err)
	}
}

func TestPurgeProofSchedulesBlobDeletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, alice)

	got, err := f.uc.UploadProof(ctx, alice, s.ID, []byte("jpeg"), "image/jpeg", "one.jpg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	ref := got.ProofPhotos[0]
	if _, err := f.uc.AttachProof(ctx, alice, s.ID, "https://elsewhere.example/x.jpg"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	purged, err := f.uc.PurgeProof(ctx, alice, s.ID, ref)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if want := []string{"https://elsewhere.example/x.jpg"}; !reflect.DeepEqual(purged.ProofPhotos, want) {
		t.Fatalf("proofs = %v, want %v", purged.ProofPhotos, want)
	}
	if !reflect.DeepEqual(f.buffer.deleted, []string{ref}) {
		t.Fatalf("deleted = %v, want [%s]", f.buffer.deleted, ref)
	}

	if _, err := f.uc.PurgeProof(ctx, alice, s.ID, "https://elsewhere.example/x.jpg"); err != nil {
		t.Fatalf("purge foreign ref: %v", err)
	}
	if len(f.buffer.deleted) != 1 {
		t.Fatalf("refs outside the owner's namespace must not be deleted: %v", f.buffer.deleted)
	}
}

func TestPurgeProofKeepsReferencedBlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.session(t, alice)

	got, err := f.uc.UploadProof(ctx, alice, first.ID, []byte("jpeg"), "image/jpeg", "p.jpg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	ref := got.ProofPhotos[0]
	if _, err := f.uc.AttachProof(ctx, alice, first.ID, ref); err != nil {
		t.Fatalf("attach duplicate: %v", err)
	}

	purged, err := f.uc.PurgeProof(ctx, alice, first.ID, ref)
	if err != nil {
		t.Fatalf("purge one copy: %v", err)
	}
	if want := []string{ref}; !reflect.DeepEqual(purged.ProofPhotos, want) {
		t.Fatalf("proofs = %v, want %v", purged.ProofPhotos, want)
	}
	if len(f.buffer.deleted) != 0 {
		t.Fatalf("blob scheduled for deletion while still attached: %v", f.buffer.deleted)
	}

	if _, err := f.sessions.Close(ctx, alice.UserID, first.ID, now.Add(time.Minute), true); err != nil {
		t.Fatalf("close: %v", err)
	}
	second := f.session(t, alice)
	if _, err := f.uc.PurgeProof(ctx, alice, second.ID, ref); err != nil {
		t.Fatalf("purge on unrelated session: %v", err)
	}
	if len(f.buffer.deleted) != 0 {
		t.Fatalf("purge on a session without the ref deleted the blob: %v", f.buffer.deleted)
	}

	if _, err := f.uc.PurgeProof(ctx, alice, first.ID, ref); err != nil {
		t.Fatalf("purge last copy: %v", err)
	}
	if !reflect.DeepEqual(f.buffer.deleted, []string{ref}) {
		t.Fatalf("deleted = %v, want [%s]", f.buffer.deleted, ref)
	}
}

func TestReplaceProofs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.session(t, alice)

	got, err := f.uc.ReplaceProofs(ctx, alice, s.ID, []string{"x", "y"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if !reflect.DeepEqual(got.ProofPhotos, []string{"x", "y"}) {
		t.Fatalf("proofs = %v", got.ProofPhotos)
	}
	if _, err := f.uc.ReplaceProofs(ctx, alice, s.ID, []string{"x", ""}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	cleared, err := f.uc.ReplaceProofs(ctx, alice, s.ID, nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared.ProofPhotos == nil || len(cleared.ProofPhotos) != 0 {
		t.Fatalf("expected empty, non-nil list, got %#v", cleared.ProofPhotos)
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		want      string
		mediaType string
		wantErr   bool
	}{
		{"raw bytes", "abc", "abc", "", false},
		{"data url", "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("hello")), "hello", "image/jpeg", false},
		{"not base64 data url", "data:image/jpeg,hello", "", "", true},
		{"garbage base64", "data:image/jpeg;base64,%%%", "", "", true},
		{"missing comma", "data:image/jpeg;base64", "", "", true},
		{"empty", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mediaType, err := DecodePayload([]byte(tt.payload))
			if tt.wantErr {
				if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if string(got) != tt.want || mediaType != tt.mediaType {
				t.Fatalf("got %q (%s), want %q (%s)", got, mediaType, tt.want, tt.mediaType)
			}
		})
	}
}

func TestOwnsRef(t *testing.T) {
	if !OwnsRef("alice", "proof_images/alice/a.jpg") {
		t.Fatal("alice should own her ref")
	}
	if OwnsRef("alice", "proof_images/alicex/a.jpg") {
		t.Fatal("prefix match must stop at the separator")
	}
	if OwnsRef("alice", "proof_images/bob/a.jpg") || OwnsRef("", "proof_images//a.jpg") {
		t.Fatal("foreign refs must not be owned")
	}
}
