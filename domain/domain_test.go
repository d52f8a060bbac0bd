package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		want    Priority
	}{
		{"empty priority", Task{Name: "read", Duration: 25}, true, ""},
		{"keeps priority", Task{Name: "read", Duration: 25, Priority: PriorityHigh}, false, PriorityHigh},
		{"blank name", Task{Name: "   ", Duration: 25}, true, ""},
		{"zero duration", Task{Name: "read", Duration: 0}, true, ""},
		{"negative duration", Task{Name: "read", Duration: -5}, true, ""},
		{"unknown priority", Task{Name: "read", Duration: 5, Priority: "urgent"}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := tt.task
			err := task.Validate()
			if tt.wantErr {
				if !IsDomainError(err, ErrCodeInvalid) {
					t.Fatalf("expected INVALID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if task.Priority != tt.want {
				t.Errorf("priority = %q, want %q", task.Priority, tt.want)
			}
		})
	}
}

func TestTaskApplyLeavesReceiver(t *testing.T) {
	orig := Task{Name: "a", Duration: 10, Priority: PriorityLow}
	name := "b"
	dur := 20
	updated := orig.Apply(TaskPatch{Name: &name, Duration: &dur})
	if orig.Name != "a" || orig.Duration != 10 {
		t.Fatalf("receiver mutated: %+v", orig)
	}
	if updated.Name != "b" || updated.Duration != 20 || updated.Priority != PriorityLow {
		t.Fatalf("unexpected patch result: %+v", updated)
	}
}

func TestFocusSessionStatus(t *testing.T) {
	end := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		s    FocusSession
		want SessionStatus
	}{
		{FocusSession{}, SessionActive},
		{FocusSession{EndTime: &end, Completed: true}, SessionCompleted},
		{FocusSession{EndTime: &end}, SessionAbandoned},
	}
	for _, c := range cases {
		if got := c.s.Status(); got != c.want {
			t.Errorf("Status() = %s, want %s", got, c.want)
		}
	}
}

func TestFocusSessionJSON(t *testing.T) {
	s := FocusSession{ID: "s1", UserID: "u1", StartTime: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	if !strings.Contains(out, `"status":"active"`) {
		t.Errorf("missing status in %s", out)
	}
	if !strings.Contains(out, `"proof_photos":[]`) {
		t.Errorf("proof list should render as empty array: %s", out)
	}
}

func TestStreakJSONDate(t *testing.T) {
	d := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(Streak{UserID: "u1", CurrentStreak: 2, LongestStreak: 5, LastCompletedDate: &d})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"last_completed_date":"2026-03-04"`) {
		t.Errorf("unexpected json %s", raw)
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("repo: %w", ErrTaskNotFound)
	if !IsDomainError(wrapped, ErrCodeNotFound) {
		t.Fatal("expected NOT_FOUND through wrapping")
	}
	if !errors.Is(wrapped, ErrTaskNotFound) {
		t.Fatal("errors.Is should see the sentinel")
	}
	if CodeOf(errors.New("boom")) != ErrCodeInternal {
		t.Fatal("plain errors are internal")
	}
	if !IsRetryable(Unavailable("store timeout", errors.New("deadline"))) {
		t.Fatal("unavailable must be retryable")
	}
	if IsRetryable(ErrSessionClosed) {
		t.Fatal("state errors are not retryable")
	}
	if PublicMessage(errors.New("pq: secret detail")) != "internal error" {
		t.Fatal("internal details must not leak")
	}
	if PublicMessage(ErrSessionClosed) != "session already ended" {
		t.Fatal("domain message expected")
	}
}
