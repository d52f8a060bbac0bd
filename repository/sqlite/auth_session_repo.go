package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type authSessionRepository struct {
	db  *sql.DB
	ttl time.Duration
}

// NewAuthSessionRepository stores auth sessions in the same file as the
// records, for deployments that run without Redis.
func NewAuthSessionRepository(d *DB, ttl time.Duration) repository.AuthSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &authSessionRepository{db: d.db, ttl: ttl}
}

func (r *authSessionRepository) Get(ctx context.Context, id string) (*domain.AuthSession, error) {
	var (
		s                domain.AuthSession
		expires, created string
		metadata         sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at, metadata FROM auth_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &expires, &created, &metadata)
	if err != nil {
		return nil, translate(err, domain.ErrAuthSessionNotFound)
	}
	if s.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		_ = json.Unmarshal([]byte(metadata.String), &s.Metadata)
	}
	if s.IsExpired(time.Now()) {
		_ = r.Delete(ctx, id)
		return nil, domain.ErrAuthSessionNotFound
	}
	return &s, nil
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
	var metadata interface{}
	if len(session.Metadata) > 0 {
		raw, err := json.Marshal(session.Metadata)
		if err != nil {
			return err
		}
		metadata = string(raw)
	}

	err := retryOnContention(func() error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO auth_sessions (id, user_id, expires_at, created_at, metadata) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET expires_at = excluded.expires_at, metadata = excluded.metadata`,
			session.ID, session.UserID, formatTime(session.ExpiresAt), formatTime(session.CreatedAt), metadata,
		)
		return err
	})
	return translate(err, domain.ErrAuthSessionNotFound)
}

func (r *authSessionRepository) Delete(ctx context.Context, id string) error {
	err := retryOnContention(func() error {
		_, err := r.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE id = ?`, id)
		return err
	})
	return translate(err, domain.ErrAuthSessionNotFound)
}

func (r *authSessionRepository) Extend(ctx context.Context, id string, ttlSeconds int) error {
	duration := time.Duration(ttlSeconds) * time.Second
	if duration <= 0 {
		duration = r.ttl
	}
	var affected int64
	err := retryOnContention(func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`,
			formatTime(time.Now().Add(duration)), id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return translate(err, domain.ErrAuthSessionNotFound)
	}
	if affected == 0 {
		return domain.ErrAuthSessionNotFound
	}
	return nil
}
