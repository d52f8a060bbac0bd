package domain

import (
	"encoding/json"
	"time"
)

// SessionStatus is the lifecycle state of a focus session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// FocusSession is one timed focus run by a user, optionally tied to a task.
// EndTime is set if and only if the session has left the active state.
type FocusSession struct {
	ID          string     `json:"id"`
	TaskID      *string    `json:"task_id"`
	UserID      string     `json:"user_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	ProofPhotos []string   `json:"proof_photos"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Status derives the state machine position from the persisted fields.
func (s *FocusSession) Status() SessionStatus {
	switch {
	case s == nil || s.EndTime == nil:
		return SessionActive
	case s.Completed:
		return SessionCompleted
	default:
		return SessionAbandoned
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s *FocusSession) IsTerminal() bool {
	return s.Status() != SessionActive
}

// Elapsed returns the focused time so far, or the total once closed.
func (s *FocusSession) Elapsed(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}

// MarshalJSON adds the derived status to the wire form.
func (s FocusSession) MarshalJSON() ([]byte, error) {
	type plain FocusSession
	proofs := s.ProofPhotos
	if proofs == nil {
		proofs = []string{}
	}
	s.ProofPhotos = proofs
	return json.Marshal(struct {
		plain
		Status SessionStatus `json:"status"`
	}{plain(s), s.Status()})
}
