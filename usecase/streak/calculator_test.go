package streak

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	now := day(2026, 5, 10, 15)

	tests := []struct {
		name        string
		completions []time.Time
		current     int
		longest     int
		last        string
	}{
		{"empty history", nil, 0, 0, ""},
		{
			"three consecutive days ending today",
			[]time.Time{day(2026, 5, 8, 9), day(2026, 5, 9, 9), day(2026, 5, 10, 9)},
			3, 3, "2026-05-10",
		},
		{
			"run ending yesterday is kept alive by grace",
			[]time.Time{day(2026, 5, 8, 9), day(2026, 5, 9, 9)},
			2, 2, "2026-05-09",
		},
		{
			"run ending two days ago resets current",
			[]time.Time{day(2026, 5, 7, 9), day(2026, 5, 8, 9)},
			0, 2, "2026-05-08",
		},
		{
			"gap keeps best run and trailing run separate",
			[]time.Time{day(2026, 5, 7, 9), day(2026, 5, 10, 9)},
			1, 1, "2026-05-10",
		},
		{
			"several completions on one day count once",
			[]time.Time{day(2026, 5, 10, 8), day(2026, 5, 10, 12), day(2026, 5, 10, 14)},
			1, 1, "2026-05-10",
		},
		{
			"longest run in the past",
			[]time.Time{
				day(2026, 4, 1, 9), day(2026, 4, 2, 9), day(2026, 4, 3, 9), day(2026, 4, 4, 9),
				day(2026, 5, 9, 9), day(2026, 5, 10, 9),
			},
			2, 4, "2026-05-10",
		},
		{
			"unordered input",
			[]time.Time{day(2026, 5, 10, 9), day(2026, 5, 8, 9), day(2026, 5, 9, 9)},
			3, 3, "2026-05-10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.completions, now, time.UTC)
			if got.Current != tt.current {
				t.Errorf("current = %d, want %d", got.Current, tt.current)
			}
			if got.Longest != tt.longest {
				t.Errorf("longest = %d, want %d", got.Longest, tt.longest)
			}
			if got.Longest < got.Current {
				t.Errorf("longest %d < current %d", got.Longest, got.Current)
			}
			switch {
			case tt.last == "" && got.LastCompleted != nil:
				t.Errorf("last completed = %v, want nil", got.LastCompleted)
			case tt.last != "" && (got.LastCompleted == nil || got.LastCompleted.Format("2006-01-02") != tt.last):
				t.Errorf("last completed = %v, want %s", got.LastCompleted, tt.last)
			}
		})
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	now := day(2026, 5, 10, 15)
	history := []time.Time{day(2026, 5, 6, 9), day(2026, 5, 9, 9), day(2026, 5, 10, 9)}

	first := Calculate(history, now, time.UTC)
	second := Calculate(history, now, time.UTC)
	if first.Current != second.Current || first.Longest != second.Longest || !first.LastCompleted.Equal(*second.LastCompleted) {
		t.Fatalf("results differ: %+v vs %+v", first, second)
	}
}

func TestCalculateUsesLocationForCalendarDates(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	// 2026-05-10 03:00 UTC is still May 9 in UTC-8.
	completions := []time.Time{day(2026, 5, 9, 12), day(2026, 5, 10, 3)}
	now := day(2026, 5, 10, 12)

	utc := Calculate(completions, now, time.UTC)
	if utc.Current != 2 {
		t.Fatalf("utc current = %d, want 2", utc.Current)
	}
	local := Calculate(completions, now, loc)
	if local.Current != 1 || local.Longest != 1 {
		t.Fatalf("local = %+v, want a single day", local)
	}
}
