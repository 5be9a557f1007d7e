// Package hours holds the static business-hours table for rental units.
package hours

import (
	"fmt"
	"time"
)

// Rule describes the open window for one weekday. Hours are 24-hour
// integers; End may exceed 23 to express a session that crosses midnight
// (End == 25 means the unit closes at 01:00 the following day).
type Rule struct {
	Start int
	End   int
}

// Valid reports whether the rule describes a usable window.
func (r Rule) Valid() bool {
	return r.Start >= 0 && r.Start < 24 && r.End > r.Start && r.End <= 48
}

// SpanMinutes returns the length of the business session in minutes.
func (r Rule) SpanMinutes() int {
	return (r.End - r.Start) * 60
}

// Table maps weekdays to their business-hours rule.
type Table map[time.Weekday]Rule

// DefaultTable returns the venue's standard schedule: open at 10:00 most
// days, Friday opens at 14:00, and Friday/Saturday sessions run until
// 01:00 the next morning.
func DefaultTable() Table {
	return Table{
		time.Sunday:    {Start: 10, End: 24},
		time.Monday:    {Start: 10, End: 24},
		time.Tuesday:   {Start: 10, End: 24},
		time.Wednesday: {Start: 10, End: 24},
		time.Thursday:  {Start: 10, End: 24},
		time.Friday:    {Start: 14, End: 25},
		time.Saturday:  {Start: 10, End: 25},
	}
}

// ForDate returns the rule governing the session that starts on the given
// calendar day.
func (t Table) ForDate(date time.Time) (Rule, error) {
	rule, ok := t[date.Weekday()]
	if !ok {
		return Rule{}, fmt.Errorf("no business hours for %s", date.Weekday())
	}
	if !rule.Valid() {
		return Rule{}, fmt.Errorf("invalid business hours for %s: start=%d end=%d", date.Weekday(), rule.Start, rule.End)
	}
	return rule, nil
}

// DisplayHour normalizes a raw business hour into the 0-23 range. Raw
// values >= 24 belong to the early hours of the next calendar day.
func DisplayHour(raw int) int {
	return raw % 24
}

// SessionKey returns the ordering key for a displayed hour within a
// business session. Post-midnight hours (0 and 1) belong at the end of the
// session that started the previous afternoon, so they compare as hour+24.
func SessionKey(displayed int) int {
	if displayed < 2 {
		return displayed + 24
	}
	return displayed
}
