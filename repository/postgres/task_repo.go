package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, user_id, name, duration, priority, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1 AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, userID)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, translate(err, domain.ErrTaskNotFound)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, translate(rows.Err(), domain.ErrTaskNotFound)
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, name, duration, priority)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Name,
		task.Duration,
		string(task.Priority),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, translate(err, domain.ErrTaskNotFound)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET name = $3,
		duration = $4,
		priority = $5,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Name,
		task.Duration,
		string(task.Priority),
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return translate(err, domain.ErrTaskNotFound)
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, userID, id string) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE sessions SET task_id = NULL WHERE task_id = $1 AND user_id = $2`,
			id, userID,
		); err != nil {
			return translate(err, domain.ErrTaskNotFound)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return translate(err, domain.ErrTaskNotFound)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTaskNotFound
		}
		return nil
	})
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	var priority string

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Name,
		&task.Duration,
		&priority,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, translate(err, domain.ErrTaskNotFound)
	}

	task.Priority = domain.Priority(priority)
	return &task, nil
}
