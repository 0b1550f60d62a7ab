// Package temporal converts instants into whole-day counts in the department's time zone.
package temporal

import (
	"fmt"
	"time"
)

// DateLayout is the wire and export format for calendar dates.
const DateLayout = "2006-01-02"

// Calendar normalizes instants to start-of-day in a fixed location.
type Calendar struct {
	loc *time.Location
}

// NewCalendar loads the named IANA zone.
func NewCalendar(zone string) (Calendar, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Calendar{}, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return Calendar{loc: loc}, nil
}

// NewCalendarIn builds a calendar for an already loaded location.
func NewCalendarIn(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc}
}

// Location returns the calendar zone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// StartOfDay returns midnight of t's civil date in the calendar zone.
func (c Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.Location())
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location())
}

// RemainingDays counts whole days from today to target. A target of today yields 0.
func (c Calendar) RemainingDays(now, target time.Time) int {
	return dayNumber(c.StartOfDay(target)) - dayNumber(c.StartOfDay(now))
}

// ServiceYears counts completed years since joining, never negative.
func (c Calendar) ServiceYears(now, joining time.Time) int {
	today := c.StartOfDay(now)
	start := c.StartOfDay(joining)
	years := today.Year() - start.Year()
	if today.Month() < start.Month() || (today.Month() == start.Month() && today.Day() < start.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// ParseDate reads YYYY-MM-DD as midnight in the calendar zone. RFC3339 instants are accepted too.
func (c Calendar) ParseDate(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(DateLayout, value, c.Location()); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return c.StartOfDay(t), nil
}

// FormatDate renders t's civil date in the calendar zone.
func (c Calendar) FormatDate(t time.Time) string {
	return t.In(c.Location()).Format(DateLayout)
}

// AddDays returns midnight of the civil date n days after t's.
func (c Calendar) AddDays(t time.Time, n int) time.Time {
	start := c.StartOfDay(t)
	return time.Date(start.Year(), start.Month(), start.Day()+n, 0, 0, 0, 0, c.Location())
}

// dayNumber maps a civil date to a day ordinal, immune to DST shifts.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
