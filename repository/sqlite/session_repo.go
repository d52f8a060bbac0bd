package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns a SQLite-backed focus session repository.
// The one-active-session rule is enforced by sessions_one_active_idx.
func NewSessionRepository(d *DB) repository.FocusSessionRepository {
	return &sessionRepository{db: d.db}
}

const sessionColumns = `id, task_id, user_id, start_time, end_time, proof_photos, completed, created_at`

func (r *sessionRepository) GetByID(ctx context.Context, userID, id string) (*domain.FocusSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND user_id = ?`, id, userID)
	return scanSession(row, domain.ErrSessionNotFound)
}

func (r *sessionRepository) GetActive(ctx context.Context, userID string) (*domain.FocusSession, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? AND end_time IS NULL`, userID)
	return scanSession(row, domain.ErrNoActiveSession)
}

func (r *sessionRepository) List(ctx context.Context, filter repository.SessionFilter) ([]domain.FocusSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY start_time DESC, id DESC LIMIT ? OFFSET ?`,
		filter.UserID, clampLimit(filter.Limit), filter.Offset,
	)
	if err != nil {
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	defer rows.Close()

	sessions := make([]domain.FocusSession, 0)
	for rows.Next() {
		s, err := scanSession(rows, domain.ErrSessionNotFound)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
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
	proofs, err := json.Marshal(session.ProofPhotos)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	err = retryOnContention(func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO sessions (id, task_id, user_id, start_time, end_time, proof_photos, completed, created_at)
			 VALUES (?, ?, ?, ?, NULL, ?, 0, ?)`,
			session.ID, nullString(session.TaskID), session.UserID, formatTime(session.StartTime), string(proofs), formatTime(now),
		)
		return err
	})
	if err != nil {
		if isUniqueOn(err, "sessions.user_id") {
			return nil, domain.ErrActiveSessionExists
		}
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	session.CreatedAt = now
	return session, nil
}

func (r *sessionRepository) Close(ctx context.Context, userID, id string, endTime time.Time, completed bool) (*domain.FocusSession, error) {
	var affected int64
	err := retryOnContention(func() error {
		res, err := r.db.ExecContext(ctx,
			`UPDATE sessions SET end_time = ?, completed = ? WHERE id = ? AND user_id = ? AND end_time IS NULL`,
			formatTime(endTime), completed, id, userID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, translate(err, domain.ErrSessionNotFound)
	}

	session, err := r.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrSessionClosed
	}
	return session, nil
}

func (r *sessionRepository) UpdateProofs(ctx context.Context, userID, id string, fn func([]string) []string) (*domain.FocusSession, error) {
	err := retryOnContention(func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		var raw string
		if err := tx.QueryRowContext(ctx, `SELECT proof_photos FROM sessions WHERE id = ? AND user_id = ?`, id, userID).Scan(&raw); err != nil {
			return err
		}
		current, err := decodeProofs(raw)
		if err != nil {
			return err
		}
		next := fn(current)
		if next == nil {
			next = []string{}
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE sessions SET proof_photos = ? WHERE id = ? AND user_id = ?`, string(encoded), id, userID); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	return r.GetByID(ctx, userID, id)
}

func (r *sessionRepository) CountProofRefs(ctx context.Context, userID, ref string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions, json_each(sessions.proof_photos) WHERE sessions.user_id = ? AND json_each.value = ?`,
		userID, ref,
	).Scan(&n)
	if err != nil {
		return 0, translate(err, domain.ErrSessionNotFound)
	}
	return n, nil
}

func (r *sessionRepository) CompletedEndTimes(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT end_time FROM sessions WHERE user_id = ? AND completed = 1 AND end_time IS NOT NULL ORDER BY end_time DESC`,
		userID,
	)
	if err != nil {
		return nil, translate(err, domain.ErrSessionNotFound)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, translate(err, domain.ErrSessionNotFound)
		}
		t, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, translate(rows.Err(), domain.ErrSessionNotFound)
}

func scanSession(row rowScanner, notFound error) (*domain.FocusSession, error) {
	var (
		s              domain.FocusSession
		taskID         sql.NullString
		start, created string
		end            sql.NullString
		proofs         string
	)
	if err := row.Scan(&s.ID, &taskID, &s.UserID, &start, &end, &proofs, &s.Completed, &created); err != nil {
		return nil, translate(err, notFound)
	}
	if taskID.Valid {
		v := taskID.String
		s.TaskID = &v
	}

	var err error
	if s.StartTime, err = parseTime(start); err != nil {
		return nil, err
	}
	if s.EndTime, err = parseNullTime(end); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.ProofPhotos, err = decodeProofs(proofs); err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeProofs(raw string) ([]string, error) {
	proofs := []string{}
	if raw == "" {
		return proofs, nil
	}
	if err := json.Unmarshal([]byte(raw), &proofs); err != nil {
		return nil, err
	}
	if proofs == nil {
		proofs = []string{}
	}
	return proofs, nil
}
