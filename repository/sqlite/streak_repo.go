package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type streakRepository struct {
	db *sql.DB
}

func NewStreakRepository(d *DB) repository.StreakRepository {
	return &streakRepository{db: d.db}
}

func (r *streakRepository) Get(ctx context.Context, userID string) (*domain.Streak, error) {
	var (
		s                domain.Streak
		last             sql.NullString
		created, updated string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, current_streak, longest_streak, last_completed_date, created_at, updated_at FROM streaks WHERE user_id = ?`,
		userID,
	).Scan(&s.ID, &s.UserID, &s.CurrentStreak, &s.LongestStreak, &last, &created, &updated)
	if err != nil {
		return nil, translate(err, domain.ErrStreakNotFound)
	}
	if last.Valid && last.String != "" {
		d, err := time.Parse(domain.DateLayout, last.String)
		if err != nil {
			return nil, err
		}
		s.LastCompletedDate = &d
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *streakRepository) Upsert(ctx context.Context, streak *domain.Streak) error {
	if streak == nil || streak.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if streak.ID == "" {
		streak.ID = uuid.NewString()
	}
	var last interface{}
	if streak.LastCompletedDate != nil {
		last = streak.LastCompletedDate.Format(domain.DateLayout)
	}
	now := formatTime(time.Now())

	err := retryOnContention(func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_completed_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				current_streak = excluded.current_streak,
				longest_streak = excluded.longest_streak,
				last_completed_date = excluded.last_completed_date,
				updated_at = excluded.updated_at`,
			streak.ID, streak.UserID, streak.CurrentStreak, streak.LongestStreak, last, now, now,
		)
		return err
	})
	if err != nil {
		return translate(err, domain.ErrStreakNotFound)
	}

	stored, err := r.Get(ctx, streak.UserID)
	if err != nil {
		return err
	}
	streak.ID = stored.ID
	streak.CreatedAt = stored.CreatedAt
	streak.UpdatedAt = stored.UpdatedAt
	return nil
}
