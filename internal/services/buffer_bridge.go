package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/internal/infrastructure/buffer"
	"github.com/fastygo/focus/usecase"
)

// BufferBridge exposes the processor to the use cases.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferStreakRecompute(ctx context.Context, userID string) error {
	if b.processor == nil || userID == "" {
		return domain.ErrInvalidPayload
	}
	item := buffer.Item{
		UserID:    userID,
		Entity:    buffer.EntityStreak,
		Operation: buffer.OperationRecompute,
		Priority:  2,
	}
	return b.processor.BufferOperation(ctx, item)
}

func (b *BufferBridge) BufferBlobDelete(ctx context.Context, userID, ref string) error {
	if b.processor == nil || ref == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(buffer.BlobData{Ref: ref})
	if err != nil {
		return err
	}
	item := buffer.Item{
		UserID:    userID,
		Entity:    buffer.EntityBlob,
		Operation: buffer.OperationDelete,
		Data:      payload,
		Priority:  4,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
