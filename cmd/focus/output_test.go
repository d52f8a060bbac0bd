package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fastygo/focus/domain"
)

func TestRenderFormats(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	last := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	streak := &domain.Streak{UserID: "alice", CurrentStreak: 3, LongestStreak: 1200, LastCompletedDate: &last}

	tests := []struct {
		format string
		want   []string
	}{
		{outputText, []string{"3 days", "1,200 days", "2026-03-14"}},
		{outputJSON, []string{`"current_streak": 3`, `"last_completed_date": "2026-03-14"`}},
		{outputYAML, []string{"current_streak: 3", "last_completed_date:", "2026-03-14"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := render(&buf, tt.format, streak); err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q missing %q", buf.String(), want)
				}
			}
		})
	}
}

func TestRenderSessionsText(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	end := fixed.Add(-30 * time.Minute)
	sessions := []domain.FocusSession{
		{ID: "s2", StartTime: fixed.Add(-10 * time.Minute)},
		{ID: "s1", StartTime: fixed.Add(-time.Hour), EndTime: &end, Completed: true, ProofPhotos: []string{"proof_images/a/x.jpg"}},
	}
	var buf bytes.Buffer
	if err := render(&buf, outputText, sessions); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"active", "10m0s", "completed", "30m0s", "1 hour ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	buf.Reset()
	if err := render(&buf, outputText, []domain.FocusSession{}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "no sessions" {
		t.Errorf("unexpected empty output %q", buf.String())
	}
}
