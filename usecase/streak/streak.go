package streak

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
)

// UseCase materializes the streak projection from session history.
type UseCase struct {
	sessions repository.FocusSessionRepository
	streaks  repository.StreakRepository
	clock    clock.Clock
	location *time.Location
	logger   *zap.Logger
}

func New(sessions repository.FocusSessionRepository, streaks repository.StreakRepository, clk clock.Clock, loc *time.Location, logger *zap.Logger) *UseCase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		sessions: sessions,
		streaks:  streaks,
		clock:    clk,
		location: loc,
		logger:   logger,
	}
}

// Compute derives the streak for userID without persisting it.
func (uc *UseCase) Compute(ctx context.Context, userID string) (*domain.Streak, error) {
	completions, err := uc.sessions.CompletedEndTimes(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := Calculate(completions, uc.clock.Now(), uc.location)
	return &domain.Streak{
		UserID:            userID,
		CurrentStreak:     res.Current,
		LongestStreak:     res.Longest,
		LastCompletedDate: res.LastCompleted,
	}, nil
}

// Recompute derives the streak from the full completed-session set and
// stores it. Running it any number of times converges to the same row.
func (uc *UseCase) Recompute(ctx context.Context, userID string) (*domain.Streak, error) {
	streak, err := uc.Compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.streaks.Upsert(ctx, streak); err != nil {
		return nil, err
	}
	uc.logger.Debug("streak recomputed",
		zap.String("user_id", userID),
		zap.Int("current", streak.CurrentStreak),
		zap.Int("longest", streak.LongestStreak))
	return streak, nil
}

// GetStreak returns the owner's streak as of now. It is computed on read so
// that a delayed projection never shows a stale value; storing the fresh
// value is best effort.
func (uc *UseCase) GetStreak(ctx context.Context, owner domain.Identity) (*domain.Streak, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	fresh, err := uc.Compute(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	if err := uc.streaks.Upsert(ctx, fresh); err != nil {
		uc.logger.Warn("streak projection not stored", zap.String("user_id", owner.UserID), zap.Error(err))
		if stored, getErr := uc.streaks.Get(ctx, owner.UserID); getErr == nil {
			fresh.ID = stored.ID
			fresh.CreatedAt = stored.CreatedAt
		}
	}
	return fresh, nil
}

// RecomputeFor is the gated form of Recompute.
func (uc *UseCase) RecomputeFor(ctx context.Context, owner domain.Identity) (*domain.Streak, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.Recompute(ctx, owner.UserID)
}
