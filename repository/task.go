package repository

import (
	"context"

	"github.com/fastygo/focus/domain"
)

type TaskFilter struct {
	UserID string
	Limit  int
	Offset int
}

// TaskRepository persists tasks. Every method is scoped to the owning user.
type TaskRepository interface {
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	// Delete removes the task and clears the reference on any session pointing at it.
	Delete(ctx context.Context, userID, id string) error
}
