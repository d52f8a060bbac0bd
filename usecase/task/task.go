package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
)

type UseCase struct {
	tasks  repository.TaskRepository
	clock  clock.Clock
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, clk clock.Clock, logger *zap.Logger) *UseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		clock:  clk,
		logger: logger,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, owner domain.Identity, limit, offset int) ([]domain.Task, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if limit < 0 || offset < 0 {
		return nil, domain.Invalid("limit and offset must not be negative")
	}
	return uc.tasks.List(ctx, repository.TaskFilter{UserID: owner.UserID, Limit: limit, Offset: offset})
}

func (uc *UseCase) GetTask(ctx context.Context, owner domain.Identity, id string) (*domain.Task, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.Invalid("task id is required")
	}
	return uc.tasks.GetByID(ctx, owner.UserID, id)
}

// CreateTask validates and stores a new task owned by the caller. An empty
// priority defaults to medium.
func (uc *UseCase) CreateTask(ctx context.Context, owner domain.Identity, name string, duration int, priority domain.Priority) (*domain.Task, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if priority == "" {
		priority = domain.PriorityMedium
	}
	now := uc.clock.Now()
	task := &domain.Task{
		UserID:    owner.UserID,
		Name:      name,
		Duration:  duration,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		uc.logger.Error("failed to create task", zap.String("user_id", owner.UserID), zap.Error(err))
		return nil, err
	}
	uc.logger.Info("task created", zap.String("task_id", created.ID), zap.String("user_id", owner.UserID))
	return created, nil
}

// UpdateTask applies patch to the stored task. Nothing is written unless
// the patched task is valid as a whole.
func (uc *UseCase) UpdateTask(ctx context.Context, owner domain.Identity, id string, patch domain.TaskPatch) (*domain.Task, error) {
	current, err := uc.GetTask(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	next := current.Apply(patch)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.UpdatedAt = uc.clock.Now()
	if err := uc.tasks.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// DeleteTask removes the task. Sessions that ran against it are kept with
// their task reference cleared.
func (uc *UseCase) DeleteTask(ctx context.Context, owner domain.Identity, id string) error {
	if !owner.Valid() {
		return domain.ErrUnauthorized
	}
	if id == "" {
		return domain.Invalid("task id is required")
	}
	if err := uc.tasks.Delete(ctx, owner.UserID, id); err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
			uc.logger.Error("failed to delete task", zap.String("task_id", id), zap.Error(err))
		}
		return err
	}
	uc.logger.Info("task deleted", zap.String("task_id", id), zap.String("user_id", owner.UserID))
	return nil
}
