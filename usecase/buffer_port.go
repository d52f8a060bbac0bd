package usecase

import "context"

// OperationBuffer runs side effects at least once. Implementations try the
// work immediately and persist it for a later retry when that fails, so an
// error here means the effect could not even be queued.
type OperationBuffer interface {
	BufferStreakRecompute(ctx context.Context, userID string) error
	BufferBlobDelete(ctx context.Context, userID, ref string) error
}
