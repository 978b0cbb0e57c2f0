package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekOf(t *testing.T) {
	t.Run("midweek timestamp maps to preceding Sunday", func(t *testing.T) {
		// Wednesday 2026-08-26 14:30 EST
		loc := time.FixedZone("EST", -5*3600)
		ts := time.Date(2026, 8, 26, 14, 30, 0, 0, loc)

		p := WeekOf(ts)

		assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, loc), p.Start)
		assert.Equal(t, time.Sunday, p.Start.Weekday())
		assert.Equal(t, time.Saturday, p.End.Weekday())
		assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc).Add(-time.Nanosecond), p.End)
	})

	t.Run("Sunday midnight starts its own week", func(t *testing.T) {
		sunday := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

		p := WeekOf(sunday)

		assert.Equal(t, sunday, p.Start)
		assert.True(t, p.Contains(sunday))
	})

	t.Run("Saturday last instant belongs to the closing week", func(t *testing.T) {
		lastInstant := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

		p := WeekOf(lastInstant)

		assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), p.Start)
		assert.True(t, p.Contains(lastInstant))
		assert.False(t, p.Contains(lastInstant.Add(time.Nanosecond)))
	})
}

func TestPreviousWeek(t *testing.T) {
	// Monday 2026-08-31
	monday := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	p := PreviousWeek(monday)

	assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), p.Start)
	assert.False(t, p.Contains(monday))
	assert.True(t, p.Next().Contains(monday))
}

func TestPeriod_Next(t *testing.T) {
	p := WeekOf(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))

	next := p.Next()

	assert.Equal(t, p.Start.AddDate(0, 0, 7), next.Start)
	assert.False(t, next.Contains(p.End))
	assert.True(t, next.Contains(p.End.Add(time.Nanosecond)))
}
