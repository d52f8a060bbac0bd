package proof

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/usecase"
)

const defaultContentType = "image/jpeg"

// MaxPayloadBytes caps a single decoded proof upload.
const MaxPayloadBytes = 10 << 20

// UseCase manages the ordered proof list of a session. Reference lists are
// edited atomically by the store; bytes live in the blob store.
type UseCase struct {
	sessions repository.FocusSessionRepository
	blobs    repository.BlobStore
	buffer   usecase.OperationBuffer
	clock    clock.Clock
	logger   *zap.Logger
}

func New(sessions repository.FocusSessionRepository, blobs repository.BlobStore, buffer usecase.OperationBuffer, clk clock.Clock, logger *zap.Logger) *UseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		sessions: sessions,
		blobs:    blobs,
		buffer:   buffer,
		clock:    clk,
		logger:   logger,
	}
}

// AttachProof appends ref to the session's proof list. Terminal sessions
// accept proofs too.
func (uc *UseCase) AttachProof(ctx context.Context, owner domain.Identity, sessionID, ref string) (*domain.FocusSession, error) {
	if err := checkTarget(owner, sessionID); err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.Invalid("proof reference is required")
	}
	return uc.sessions.UpdateProofs(ctx, owner.UserID, sessionID, func(current []string) []string {
		return append(current, ref)
	})
}

// RemoveProof drops the last occurrence of ref. A missing ref leaves the
// session unchanged.
func (uc *UseCase) RemoveProof(ctx context.Context, owner domain.Identity, sessionID, ref string) (*domain.FocusSession, error) {
	session, _, err := uc.remove(ctx, owner, sessionID, ref)
	return session, err
}

func (uc *UseCase) remove(ctx context.Context, owner domain.Identity, sessionID, ref string) (*domain.FocusSession, bool, error) {
	if err := checkTarget(owner, sessionID); err != nil {
		return nil, false, err
	}
	removed := false
	session, err := uc.sessions.UpdateProofs(ctx, owner.UserID, sessionID, func(current []string) []string {
		next := removeLast(current, ref)
		removed = len(next) < len(current)
		return next
	})
	if err != nil {
		return nil, false, err
	}
	return session, removed, nil
}

// ReplaceProofs sets the whole list. Blank refs are rejected.
func (uc *UseCase) ReplaceProofs(ctx context.Context, owner domain.Identity, sessionID string, refs []string) (*domain.FocusSession, error) {
	if err := checkTarget(owner, sessionID); err != nil {
		return nil, err
	}
	next := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, domain.Invalid("proof reference is required")
		}
		next = append(next, ref)
	}
	return uc.sessions.UpdateProofs(ctx, owner.UserID, sessionID, func([]string) []string {
		return next
	})
}

// UploadProof stores payload in the blob store and attaches the resulting
// reference. payload may be raw bytes or a base64 data URL.
func (uc *UseCase) UploadProof(ctx context.Context, owner domain.Identity, sessionID string, payload []byte, contentType, fileName string) (*domain.FocusSession, error) {
	if err := checkTarget(owner, sessionID); err != nil {
		return nil, err
	}
	if uc.blobs == nil {
		return nil, domain.Unavailable("blob store not configured", nil)
	}
	if _, err := uc.sessions.GetByID(ctx, owner.UserID, sessionID); err != nil {
		return nil, err
	}

	data, urlType, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = urlType
	}
	if contentType == "" {
		contentType = defaultContentType
	}
	name, err := uc.fileName(fileName)
	if err != nil {
		return nil, err
	}

	ref, err := uc.blobs.Put(ctx, owner.UserID+"/"+name, contentType, data)
	if err != nil {
		return nil, err
	}
	session, err := uc.AttachProof(ctx, owner, sessionID, ref)
	if err != nil {
		if delErr := uc.blobs.Delete(ctx, ref); delErr != nil {
			uc.logger.Warn("orphaned proof blob", zap.String("ref", ref), zap.Error(delErr))
		}
		return nil, err
	}
	uc.logger.Info("proof uploaded",
		zap.String("session_id", sessionID),
		zap.String("ref", ref),
		zap.Int("bytes", len(data)))
	return session, nil
}

// PurgeProof removes ref from the session and schedules deletion of the
// stored bytes once no session of the caller references them any more.
func (uc *UseCase) PurgeProof(ctx context.Context, owner domain.Identity, sessionID, ref string) (*domain.FocusSession, error) {
	session, removed, err := uc.remove(ctx, owner, sessionID, ref)
	if err != nil {
		return nil, err
	}
	if !removed || !OwnsRef(owner.UserID, ref) || uc.buffer == nil {
		return session, nil
	}

	remaining, err := uc.sessions.CountProofRefs(ctx, owner.UserID, ref)
	if err != nil {
		uc.logger.Warn("proof still referenced check failed, keeping blob", zap.String("ref", ref), zap.Error(err))
		return session, nil
	}
	if remaining > 0 {
		uc.logger.Debug("proof blob still referenced", zap.String("ref", ref), zap.Int("references", remaining))
		return session, nil
	}
	if err := uc.buffer.BufferBlobDelete(ctx, owner.UserID, ref); err != nil {
		uc.logger.Error("failed to schedule proof deletion", zap.String("ref", ref), zap.Error(err))
	}
	return session, nil
}

// OpenProof loads the bytes behind one of the caller's references.
func (uc *UseCase) OpenProof(ctx context.Context, owner domain.Identity, ref string) (*repository.Blob, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if uc.blobs == nil {
		return nil, domain.Unavailable("blob store not configured", nil)
	}
	if !OwnsRef(owner.UserID, ref) {
		return nil, domain.ErrProofNotFound
	}
	return uc.blobs.Get(ctx, ref)
}

func (uc *UseCase) fileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("proof_%d.jpg", uc.clock.Now().UnixMilli()), nil
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || path.Base(name) != name {
		return "", domain.Invalid("invalid file name %q", name)
	}
	return name, nil
}

// OwnsRef reports whether ref points into userID's blob namespace.
func OwnsRef(userID, ref string) bool {
	key, ok := repository.BlobKey(ref)
	return ok && userID != "" && strings.HasPrefix(key, userID+"/")
}

// DecodePayload returns the raw bytes of payload. A "data:<type>;base64,"
// prefix is stripped and the remainder decoded; its media type is returned.
func DecodePayload(payload []byte) ([]byte, string, error) {
	if len(payload) == 0 {
		return nil, "", domain.Invalid("proof payload is empty")
	}
	if !bytes.HasPrefix(payload, []byte("data:")) {
		if len(payload) > MaxPayloadBytes {
			return nil, "", domain.Invalid("proof payload exceeds %d bytes", MaxPayloadBytes)
		}
		return payload, "", nil
	}

	comma := bytes.IndexByte(payload, ',')
	if comma < 0 {
		return nil, "", domain.Invalid("malformed data url")
	}
	meta := string(payload[len("data:"):comma])
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", domain.Invalid("data url must be base64 encoded")
	}
	mediaType := strings.TrimSuffix(meta, ";base64")

	encoded := bytes.TrimSpace(payload[comma+1:])
	data := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(data, encoded)
	if err != nil {
		return nil, "", domain.Invalid("data url is not valid base64")
	}
	if n == 0 {
		return nil, "", domain.Invalid("proof payload is empty")
	}
	if n > MaxPayloadBytes {
		return nil, "", domain.Invalid("proof payload exceeds %d bytes", MaxPayloadBytes)
	}
	return data[:n], mediaType, nil
}

func checkTarget(owner domain.Identity, sessionID string) error {
	if !owner.Valid() {
		return domain.ErrUnauthorized
	}
	if sessionID == "" {
		return domain.Invalid("session id is required")
	}
	return nil
}

func removeLast(list []string, ref string) []string {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == ref {
			out := make([]string, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...)
		}
	}
	return list
}
