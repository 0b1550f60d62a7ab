package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riyadh(t *testing.T) Calendar {
	t.Helper()
	cal, err := NewCalendar("Asia/Riyadh")
	require.NoError(t, err)
	return cal
}

func TestRemainingDays(t *testing.T) {
	cal := riyadh(t)
	// 22:30 in Riyadh on 14 Oct is still 14 Oct locally.
	now := time.Date(2026, 10, 14, 19, 30, 0, 0, time.UTC)

	t.Run("today is zero regardless of time of day", func(t *testing.T) {
		assert.Equal(t, 0, cal.RemainingDays(now, cal.StartOfDay(now)))
		assert.Equal(t, 0, cal.RemainingDays(now, now.Add(-3*time.Hour)))
	})

	t.Run("future and past dates", func(t *testing.T) {
		assert.Equal(t, 10, cal.RemainingDays(now, cal.AddDays(now, 10)))
		assert.Equal(t, -5, cal.RemainingDays(now, cal.AddDays(now, -5)))
	})

	t.Run("local midnight boundary", func(t *testing.T) {
		// 21:00 UTC is 00:00 next day in Riyadh.
		late := time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC)
		target, err := cal.ParseDate("2026-10-15")
		require.NoError(t, err)
		assert.Equal(t, 0, cal.RemainingDays(late, target))
		assert.Equal(t, 1, cal.RemainingDays(now, target))
	})

	t.Run("counts whole days across DST changes", func(t *testing.T) {
		ny, err := NewCalendar("America/New_York")
		require.NoError(t, err)
		start := time.Date(2026, 3, 7, 12, 0, 0, 0, ny.Location())
		target, err := ny.ParseDate("2026-03-09")
		require.NoError(t, err)
		assert.Equal(t, 2, ny.RemainingDays(start, target))
	})
}

func TestServiceYears(t *testing.T) {
	cal := riyadh(t)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		joining string
		want    int
	}{
		{"anniversary today", "2020-10-14", 6},
		{"day before anniversary", "2020-10-15", 5},
		{"joined this year", "2026-01-01", 0},
		{"future joining clamps to zero", "2027-01-01", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			joining, err := cal.ParseDate(tc.joining)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cal.ServiceYears(now, joining))
		})
	}
}

func TestParseAndFormatDate(t *testing.T) {
	cal := riyadh(t)

	d, err := cal.ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", cal.FormatDate(d))

	d, err = cal.ParseDate("2026-02-28T22:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", cal.FormatDate(d))

	_, err = cal.ParseDate("28/02/2026")
	assert.Error(t, err)
}

func TestNewCalendarRejectsUnknownZone(t *testing.T) {
	_, err := NewCalendar("Mars/Olympus")
	assert.Error(t, err)
}
