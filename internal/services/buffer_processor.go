package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/internal/infrastructure/buffer"
	"github.com/fastygo/focus/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// StreakRecomputer rebuilds a user's streak projection.
type StreakRecomputer interface {
	Recompute(ctx context.Context, userID string) (*domain.Streak, error)
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	// Retention bounds how long an item may stay buffered.
	Retention time.Duration
}

const maxRetryDelay = 10 * time.Minute

// BufferProcessor runs side effects inline when it can and drains the
// durable buffer on a schedule otherwise.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	streaks StreakRecomputer
	blobs   repository.BlobStore
	flights singleflight.Group
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	streaks StreakRecomputer,
	blobs repository.BlobStore,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		streaks: streaks,
		blobs:   blobs,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	if _, err := bp.cron.AddFunc(fmt.Sprintf("@every %s", cfg.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		bp.logger.Error("invalid drain schedule", zap.Duration("interval", cfg.Interval), zap.Error(err))
	}
	if _, err := bp.cron.AddFunc("0 0 * * * *", bp.cleanup); err != nil {
		bp.logger.Error("invalid cleanup schedule", zap.Error(err))
	}

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain processes due items synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.DueBatch(time.Now().UTC(), bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := bp.processItem(ctx, item)
		if err == nil {
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
			}
			continue
		}

		bp.logger.Warn("failed to process buffer item",
			zap.String("item_id", item.ID),
			zap.String("entity", item.Entity),
			zap.Int("retries", item.Retries),
			zap.Error(err))

		item.Retries++
		item.LastError = err.Error()
		if !retryable(err) || item.Retries >= bp.cfg.MaxRetries {
			bp.logger.Error("dropping buffer item",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.String("user_id", item.UserID),
				zap.Error(err))
			_ = bp.store.Remove(item)
			continue
		}
		if err := bp.store.Reschedule(item, bp.backoff(item.Retries)); err != nil {
			bp.logger.Error("failed to reschedule buffer item", zap.Error(err))
		}
	}
	return nil
}

// BufferOperation attempts to run the side effect immediately and falls
// back to persisting it.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.processItem(ctx, item)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		bp.logger.Warn("immediate processing failed, buffering",
			zap.String("entity", item.Entity),
			zap.String("user_id", item.UserID),
			zap.Error(err))
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityStreak:
		if bp.streaks == nil {
			return fmt.Errorf("streak recomputer not configured")
		}
		if item.UserID == "" {
			return domain.Invalid("streak item without user")
		}
		return bp.recompute(ctx, item.UserID)

	case buffer.EntityBlob:
		if bp.blobs == nil {
			return fmt.Errorf("blob store not configured")
		}
		var data buffer.BlobData
		if err := json.Unmarshal(item.Data, &data); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "malformed blob item", err)
		}
		switch item.Operation {
		case buffer.OperationDelete:
			return bp.blobs.Delete(ctx, data.Ref)
		default:
			return domain.Invalid("unsupported operation %s", item.Operation)
		}

	default:
		return domain.Invalid("unsupported entity %s", item.Entity)
	}
}

// recompute coalesces concurrent requests per user. A shared result may have
// read history before the caller's commit, so the caller then waits for one
// more flight, which necessarily starts after it.
func (bp *BufferProcessor) recompute(ctx context.Context, userID string) error {
	run := func() (interface{}, error) {
		return bp.streaks.Recompute(ctx, userID)
	}
	_, err, shared := bp.flights.Do("streak:"+userID, run)
	if err == nil && shared {
		_, err, _ = bp.flights.Do("streak:"+userID, run)
	}
	return err
}

func (bp *BufferProcessor) cleanup() {
	removed, err := bp.store.Cleanup(time.Now().UTC().Add(-bp.cfg.Retention))
	if err != nil {
		bp.logger.Error("buffer cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		bp.logger.Warn("expired buffer items removed", zap.Int("count", removed))
	}
}

func (bp *BufferProcessor) backoff(retries int) time.Duration {
	delay := bp.cfg.RetryDelay << uint(retries-1)
	if delay <= 0 || delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// retryable treats unclassified errors as transient; classified ones are
// retried only when marked unavailable.
func retryable(err error) bool {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return true
	}
	return dErr.Code == domain.ErrCodeUnavailable
}
