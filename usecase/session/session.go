// Package session runs the focus session lifecycle: start, end and the
// read side. Ending a completed session schedules a streak recompute.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
	"github.com/fastygo/focus/usecase"
)

type UseCase struct {
	sessions repository.FocusSessionRepository
	tasks    repository.TaskRepository
	buffer   usecase.OperationBuffer
	clock    clock.Clock
	logger   *zap.Logger
}

func New(sessions repository.FocusSessionRepository, tasks repository.TaskRepository, buffer usecase.OperationBuffer, clk clock.Clock, logger *zap.Logger) *UseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		sessions: sessions,
		tasks:    tasks,
		buffer:   buffer,
		clock:    clk,
		logger:   logger,
	}
}

// StartSession opens a session for the caller, optionally against one of
// their tasks. The store rejects a second active session atomically; the
// GetActive lookup only produces a friendlier error for the common case.
func (uc *UseCase) StartSession(ctx context.Context, owner domain.Identity, taskID *string) (*domain.FocusSession, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if taskID != nil {
		if *taskID == "" {
			taskID = nil
		} else if _, err := uc.tasks.GetByID(ctx, owner.UserID, *taskID); err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil, domain.Invalid("task %s does not exist", *taskID)
			}
			return nil, err
		}
	}

	if _, err := uc.sessions.GetActive(ctx, owner.UserID); err == nil {
		return nil, domain.ErrActiveSessionExists
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	session := &domain.FocusSession{
		TaskID:      taskID,
		UserID:      owner.UserID,
		StartTime:   uc.clock.Now(),
		ProofPhotos: []string{},
	}
	created, err := uc.sessions.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("session started", zap.String("session_id", created.ID), zap.String("user_id", owner.UserID))
	return created, nil
}

// EndSession closes an active session. Only the first close wins; later
// attempts get domain.ErrSessionClosed. A failure to schedule the streak
// recompute is logged and never fails the close.
func (uc *UseCase) EndSession(ctx context.Context, owner domain.Identity, id string, completed bool) (*domain.FocusSession, error) {
	current, err := uc.GetSession(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if current.IsTerminal() {
		return nil, domain.ErrSessionClosed
	}
	end := uc.clock.Now()
	if end.Before(current.StartTime) {
		return nil, domain.Invalid("session cannot end before it started")
	}

	closed, err := uc.sessions.Close(ctx, owner.UserID, id, end, completed)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("session ended",
		zap.String("session_id", closed.ID),
		zap.Bool("completed", completed),
		zap.Duration("elapsed", closed.Elapsed(end)))

	if completed && uc.buffer != nil {
		if err := uc.buffer.BufferStreakRecompute(ctx, owner.UserID); err != nil {
			uc.logger.Error("failed to schedule streak recompute", zap.String("user_id", owner.UserID), zap.Error(err))
		}
	}
	return closed, nil
}

// GetSessions lists the caller's sessions, newest start first.
func (uc *UseCase) GetSessions(ctx context.Context, owner domain.Identity, limit, offset int) ([]domain.FocusSession, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if limit < 0 || offset < 0 {
		return nil, domain.Invalid("limit and offset must not be negative")
	}
	return uc.sessions.List(ctx, repository.SessionFilter{UserID: owner.UserID, Limit: limit, Offset: offset})
}

func (uc *UseCase) GetSession(ctx context.Context, owner domain.Identity, id string) (*domain.FocusSession, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.Invalid("session id is required")
	}
	return uc.sessions.GetByID(ctx, owner.UserID, id)
}

// GetActiveSession returns domain.ErrNoActiveSession when nothing is running.
func (uc *UseCase) GetActiveSession(ctx context.Context, owner domain.Identity) (*domain.FocusSession, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.sessions.GetActive(ctx, owner.UserID)
}
