package pricing

import "time"

// CurrentQuarterWindow spans the calendar quarter containing now, in UTC.
func CurrentQuarterWindow(now time.Time) ActivityWindow {
	now = now.UTC()
	firstMonth := time.Month((int(now.Month())-1)/3*3 + 1)
	start := time.Date(now.Year(), firstMonth, 1, 0, 0, 0, 0, time.UTC)
	return ActivityWindow{
		Start: start,
		End:   start.AddDate(0, 3, 0).Add(-time.Millisecond),
	}
}

// PreviousQuarterWindow spans the calendar quarter before the one containing now.
func PreviousQuarterWindow(now time.Time) ActivityWindow {
	current := CurrentQuarterWindow(now)
	return CurrentQuarterWindow(current.Start.Add(-time.Millisecond))
}
