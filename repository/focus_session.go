package repository

import (
	"context"
	"time"

	"github.com/fastygo/focus/domain"
)

type SessionFilter struct {
	UserID string
	Limit  int
	Offset int
}

// FocusSessionRepository persists focus sessions.
//
// Create must reject a second active session for the same user atomically
// (domain.ErrActiveSessionExists). Close must only affect a session that is
// still active and return domain.ErrSessionClosed otherwise.
type FocusSessionRepository interface {
	GetByID(ctx context.Context, userID, id string) (*domain.FocusSession, error)
	GetActive(ctx context.Context, userID string) (*domain.FocusSession, error)
	List(ctx context.Context, filter SessionFilter) ([]domain.FocusSession, error)
	Create(ctx context.Context, session *domain.FocusSession) (*domain.FocusSession, error)
	Close(ctx context.Context, userID, id string, endTime time.Time, completed bool) (*domain.FocusSession, error)
	// UpdateProofs atomically rewrites the proof list with fn applied to the current one.
	UpdateProofs(ctx context.Context, userID, id string, fn func([]string) []string) (*domain.FocusSession, error)
	// CountProofRefs counts occurrences of ref across all of the user's sessions.
	CountProofRefs(ctx context.Context, userID, ref string) (int, error)
	// CompletedEndTimes returns the end time of every completed session of the user.
	CompletedEndTimes(ctx context.Context, userID string) ([]time.Time, error)
}
