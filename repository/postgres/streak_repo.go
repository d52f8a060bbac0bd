package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type streakRepository struct {
	pool *pgxpool.Pool
}

func NewStreakRepository(pool *pgxpool.Pool) repository.StreakRepository {
	return &streakRepository{pool: pool}
}

func (r *streakRepository) Get(ctx context.Context, userID string) (*domain.Streak, error) {
	const query = `
	SELECT id, user_id, current_streak, longest_streak, last_completed_date, created_at, updated_at
	FROM streaks
	WHERE user_id = $1
	`
	var s domain.Streak
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.CurrentStreak,
		&s.LongestStreak,
		&s.LastCompletedDate,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, domain.ErrStreakNotFound)
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

	const query = `
	INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_completed_date)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO UPDATE
	SET current_streak = EXCLUDED.current_streak,
		longest_streak = EXCLUDED.longest_streak,
		last_completed_date = EXCLUDED.last_completed_date,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		streak.ID,
		streak.UserID,
		streak.CurrentStreak,
		streak.LongestStreak,
		streak.LastCompletedDate,
	).Scan(&streak.ID, &streak.CreatedAt, &streak.UpdatedAt)
	return translate(err, domain.ErrStreakNotFound)
}
