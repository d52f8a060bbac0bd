package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(d *DB) repository.UserRepository {
	return &userRepository{db: d.db}
}

const userColumns = `id, email, display_name, password_hash, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(user.Email)
	now := time.Now().UTC()

	err := retryOnContention(func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			user.ID, user.Email, nullString(user.DisplayName), user.PasswordHash, formatTime(now), formatTime(now),
		)
		return err
	})
	if err != nil {
		if isUniqueOn(err, "users.email") {
			return domain.ErrEmailTaken
		}
		return translate(err, domain.ErrUserNotFound)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *userRepository) UpdateDisplayName(ctx context.Context, id string, displayName *string) (*domain.User, error) {
	var affected int64
	err := retryOnContention(func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE users SET display_name = ?, updated_at = ? WHERE id = ?`,
			nullString(displayName), formatTime(time.Now()), id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	if affected == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                domain.User
		display          sql.NullString
		created, updated string
	)
	if err := row.Scan(&u.ID, &u.Email, &display, &u.PasswordHash, &created, &updated); err != nil {
		return nil, translate(err, domain.ErrUserNotFound)
	}
	if display.Valid {
		v := display.String
		u.DisplayName = &v
	}
	var err error
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
