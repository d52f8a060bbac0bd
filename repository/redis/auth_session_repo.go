package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type authSessionRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewAuthSessionRepository creates a Redis-backed auth session repository.
// Keys expire together with the session.
func NewAuthSessionRepository(client *redislib.Client, ttl time.Duration) repository.AuthSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &authSessionRepository{
		client: client,
		prefix: "auth_session:",
		ttl:    ttl,
	}
}

func (r *authSessionRepository) Get(ctx context.Context, id string) (*domain.AuthSession, error) {
	result, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrAuthSessionNotFound
		}
		return nil, translate(err)
	}

	var session domain.AuthSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *authSessionRepository) Save(ctx context.Context, session *domain.AuthSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = r.ttl
	}

	return translate(r.client.Set(ctx, r.key(session.ID), payload, ttl).Err())
}

func (r *authSessionRepository) Delete(ctx context.Context, id string) error {
	return translate(r.client.Del(ctx, r.key(id)).Err())
}

func (r *authSessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}
	session, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ExpiresAt = time.Now().Add(duration)
	return r.Save(ctx, session)
}

func (r *authSessionRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.Unavailable("session cache timed out", err)
	}
	if errors.As(err, &netErr) || errors.Is(err, redislib.ErrClosed) {
		return domain.Unavailable("session cache unreachable", err)
	}
	return err
}
