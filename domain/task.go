package domain

import (
	"strings"
	"time"
)

// Priority ranks a task for the user.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a user-owned activity a focus session can be run against.
type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Duration  int       `json:"duration"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskPatch carries the optional fields of a task update.
type TaskPatch struct {
	Name     *string   `json:"name,omitempty"`
	Duration *int      `json:"duration,omitempty"`
	Priority *Priority `json:"priority,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Duration == nil && p.Priority == nil
}

// Validate normalizes the task and checks its invariants. Priority must
// already be set; callers default it on create only.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Invalid("task name is required")
	}
	if t.Duration <= 0 {
		return Invalid("task duration must be a positive number of minutes")
	}
	if !t.Priority.Valid() {
		return Invalid("priority must be one of low, medium, high")
	}
	return nil
}

// Apply returns a copy of t with the patch applied. The receiver is left untouched.
func (t Task) Apply(p TaskPatch) Task {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	return t
}
