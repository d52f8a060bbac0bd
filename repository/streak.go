package repository

import (
	"context"

	"github.com/fastygo/focus/domain"
)

type StreakRepository interface {
	Get(ctx context.Context, userID string) (*domain.Streak, error)
	// Upsert stores the projection keyed by user, keeping the existing id.
	Upsert(ctx context.Context, streak *domain.Streak) error
}
