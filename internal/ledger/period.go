package ledger

import "time"

// Period is one Sunday-to-Saturday payment week. PeriodStart is midnight on
// Sunday, PeriodEnd the last instant of the following Saturday.
type Period struct {
	Start time.Time
	End   time.Time
}

// WeekOf returns the payment period containing t, in t's location.
func WeekOf(t time.Time) Period {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	start := midnight.AddDate(0, 0, -int(midnight.Weekday())) // Sunday
	return Period{
		Start: start,
		End:   start.AddDate(0, 0, 7).Add(-time.Nanosecond), // Saturday 23:59:59.999999999
	}
}

// PreviousWeek returns the period immediately before the one containing t,
// the window a weekly scheduler run settles.
func PreviousWeek(t time.Time) Period {
	return WeekOf(t.AddDate(0, 0, -7))
}

// Contains reports whether ts falls inside the period.
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.Start) && !ts.After(p.End)
}

// Next returns the following payment period.
func (p Period) Next() Period {
	return WeekOf(p.Start.AddDate(0, 0, 7))
}
