package streak

import (
	"sort"
	"time"
)

// GraceDays is how many whole days may pass after the last completion before
// the current streak resets. With 1, a run that ended yesterday is still
// current until today is over.
const GraceDays = 1

const secondsPerDay = 24 * 60 * 60

// Result is the derived streak state for one user.
type Result struct {
	Current       int
	Longest       int
	LastCompleted *time.Time
}

// Calculate derives the streak from completion instants. Each instant is
// mapped to its calendar date in loc and dates are deduplicated, so several
// completions on one day count once. The result depends only on the input
// set and now.
func Calculate(completions []time.Time, now time.Time, loc *time.Location) Result {
	if loc == nil {
		loc = time.UTC
	}

	seen := make(map[int64]struct{}, len(completions))
	days := make([]int64, 0, len(completions))
	for _, c := range completions {
		d := dayNumber(c, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return Result{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	longest, run, trailing := 1, 1, 0
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			if trailing == 0 {
				trailing = run
			}
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	if trailing == 0 {
		trailing = run
	}

	current := 0
	if dayNumber(now, loc)-days[0] <= GraceDays {
		current = trailing
	}

	last := dateOf(days[0])
	return Result{
		Current:       current,
		Longest:       longest,
		LastCompleted: &last,
	}
}

// dayNumber counts calendar days since the epoch for t's date in loc.
func dayNumber(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

func dateOf(day int64) time.Time {
	return time.Unix(day*secondsPerDay, 0).UTC()
}
