package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

const activeSessionIndex = "sessions_one_active_idx"

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed focus session repository.
// The one-active-session rule is enforced by sessions_one_active_idx.
func NewSessionRepository(pool *pgxpool.Pool) repository.FocusSessionRepository {
	return &sessionRepository{pool: pool}
}

const sessionColumns = `id, task_id, user_id, start_time, end_time, proof_photos, completed, created_at`

func (r *sessionRepository) GetByID(ctx context.Context, userID, id string) (*domain.FocusSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return scanSession(row, domain.ErrSessionNotFound)
}

func (r *sessionRepository) GetActive(ctx context.Context, userID string) (*domain.FocusSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 AND end_time IS NULL`,
		userID,
	)
	return scanSession(row, domain.ErrNoActiveSession)
}

func (r *sessionRepository) List(ctx context.Context, filter repository.SessionFilter) ([]domain.FocusSession, error) {
	const query = `
	SELECT ` + sessionColumns + `
	FROM sessions
	WHERE user_id = $1
	ORDER BY start_time DESC, id DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	defer rows.Close()

	sessions := make([]domain.FocusSession, 0)
	for rows.Next() {
		session, err := scanSession(rows, domain.ErrSessionNotFound)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, translate(rows.Err(), domain.ErrSessionNotFound)
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.FocusSession) (*domain.FocusSession, error) {
	if session == nil {
		return nil, domain.ErrInvalidPayload
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.ProofPhotos == nil {
		session.ProofPhotos = []string{}
	}

	const query = `
	INSERT INTO sessions (id, task_id, user_id, start_time, proof_photos, completed)
	VALUES ($1, $2, $3, $4, $5, FALSE)
	RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.TaskID,
		session.UserID,
		session.StartTime,
		session.ProofPhotos,
	).Scan(&session.CreatedAt)
	if err != nil {
		if constraintName(err) == activeSessionIndex {
			return nil, domain.ErrActiveSessionExists
		}
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	return session, nil
}

func (r *sessionRepository) Close(ctx context.Context, userID, id string, endTime time.Time, completed bool) (*domain.FocusSession, error) {
	const query = `
	UPDATE sessions
	SET end_time = $3,
		completed = $4
	WHERE id = $1 AND user_id = $2 AND end_time IS NULL
	RETURNING ` + sessionColumns

	row := r.pool.QueryRow(ctx, query, id, userID, endTime, completed)
	session, err := scanSession(row, domain.ErrSessionClosed)
	if err == domain.ErrSessionClosed {
		// Distinguish "already closed" from "never existed".
		if _, getErr := r.GetByID(ctx, userID, id); getErr != nil {
			return nil, getErr
		}
	}
	return session, err
}

func (r *sessionRepository) UpdateProofs(ctx context.Context, userID, id string, fn func([]string) []string) (*domain.FocusSession, error) {
	var updated *domain.FocusSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var current []string
		err := tx.QueryRow(ctx,
			`SELECT proof_photos FROM sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		).Scan(&current)
		if err != nil {
			return translate(err, domain.ErrSessionNotFound)
		}

		next := fn(append([]string(nil), current...))
		if next == nil {
			next = []string{}
		}

		row := tx.QueryRow(ctx,
			`UPDATE sessions SET proof_photos = $3 WHERE id = $1 AND user_id = $2 RETURNING `+sessionColumns,
			id, userID, next,
		)
		updated, err = scanSession(row, domain.ErrSessionNotFound)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *sessionRepository) CountProofRefs(ctx context.Context, userID, ref string) (int, error) {
	const query = `
	SELECT COALESCE(SUM(cardinality(array_positions(proof_photos, $2::text))), 0)
	FROM sessions
	WHERE user_id = $1
	`
	var n int64
	if err := r.pool.QueryRow(ctx, query, userID, ref).Scan(&n); err != nil {
		return 0, translate(err, domain.ErrSessionNotFound)
	}
	return int(n), nil
}

func (r *sessionRepository) CompletedEndTimes(ctx context.Context, userID string) ([]time.Time, error) {
	const query = `
	SELECT end_time
	FROM sessions
	WHERE user_id = $1 AND completed AND end_time IS NOT NULL
	ORDER BY end_time DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, translate(err, domain.ErrSessionNotFound)
		}
		times = append(times, t)
	}
	return times, translate(rows.Err(), domain.ErrSessionNotFound)
}

func scanSession(row scanner, notFound error) (*domain.FocusSession, error) {
	var session domain.FocusSession
	if err := row.Scan(
		&session.ID,
		&session.TaskID,
		&session.UserID,
		&session.StartTime,
		&session.EndTime,
		&session.ProofPhotos,
		&session.Completed,
		&session.CreatedAt,
	); err != nil {
		return nil, translate(err, notFound)
	}
	if session.ProofPhotos == nil {
		session.ProofPhotos = []string{}
	}
	return &session, nil
}
