package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Streak is the per-user projection of consecutive days with a completed session.
type Streak struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastCompletedDate *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LastCompleted renders LastCompletedDate as YYYY-MM-DD, or nil.
func (s *Streak) LastCompleted() *string {
	if s == nil || s.LastCompletedDate == nil {
		return nil
	}
	v := s.LastCompletedDate.Format(DateLayout)
	return &v
}

// MarshalJSON renders the last completed date as a calendar date.
func (s Streak) MarshalJSON() ([]byte, error) {
	type plain Streak
	return json.Marshal(struct {
		plain
		LastCompletedDate *string `json:"last_completed_date"`
	}{plain(s), s.LastCompleted()})
}
