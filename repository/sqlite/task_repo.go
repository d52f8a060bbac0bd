package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository returns a SQLite-backed implementation of TaskRepository.
func NewTaskRepository(d *DB) repository.TaskRepository {
	return &taskRepository{db: d.db}
}

const taskColumns = `id, user_id, name, duration, priority, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		filter.UserID, clampLimit(filter.Limit), filter.Offset,
	)
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
	now := time.Now().UTC()
	err := retryOnContention(func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO tasks (id, user_id, name, duration, priority, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			task.ID, task.UserID, task.Name, task.Duration, string(task.Priority), formatTime(now), formatTime(now),
		)
		return err
	})
	if err != nil {
		return nil, translate(err, domain.ErrTaskNotFound)
	}
	task.CreatedAt, task.UpdatedAt = now, now
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	now := time.Now().UTC()
	var affected int64
	err := retryOnContention(func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE tasks SET name = ?, duration = ?, priority = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			task.Name, task.Duration, string(task.Priority), formatTime(now), task.ID, task.UserID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return translate(err, domain.ErrTaskNotFound)
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = now
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, userID, id string) error {
	return retryOnContention(func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return translate(err, domain.ErrTaskNotFound)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET task_id = NULL WHERE task_id = ? AND user_id = ?`, id, userID); err != nil {
			return translate(err, domain.ErrTaskNotFound)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return translate(err, domain.ErrTaskNotFound)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrTaskNotFound
		}
		return translate(tx.Commit(), domain.ErrTaskNotFound)
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task             domain.Task
		priority         string
		created, updated string
	)
	if err := row.Scan(&task.ID, &task.UserID, &task.Name, &task.Duration, &priority, &created, &updated); err != nil {
		return nil, translate(err, domain.ErrTaskNotFound)
	}
	task.Priority = domain.Priority(priority)

	var err error
	if task.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &task, nil
}
