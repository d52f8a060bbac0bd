package profile

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

const maxDisplayNameLength = 80

type UseCase struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func New(users repository.UserRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, owner domain.Identity) (*domain.User, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, owner.UserID)
}

// UpdateProfile sets the display name. A nil or blank name clears it.
func (uc *UseCase) UpdateProfile(ctx context.Context, owner domain.Identity, displayName *string) (*domain.User, error) {
	if !owner.Valid() {
		return nil, domain.ErrUnauthorized
	}
	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if utf8.RuneCountInString(trimmed) > maxDisplayNameLength {
			return nil, domain.Invalid("display name must be at most %d characters", maxDisplayNameLength)
		}
		displayName = &trimmed
		if trimmed == "" {
			displayName = nil
		}
	}

	user, err := uc.users.UpdateDisplayName(ctx, owner.UserID, displayName)
	if err != nil {
		uc.logger.Error("failed to update profile", zap.String("user_id", owner.UserID), zap.Error(err))
		return nil, err
	}
	return user, nil
}
