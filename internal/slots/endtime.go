package slots

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoStartTime means the selection has no date or start time yet.
	ErrNoStartTime = errors.New("start time not selected")
	// ErrInvalidDuration means the requested duration is outside 1-12 hours.
	ErrInvalidDuration = errors.New("invalid duration")
)

// DeriveEndTime computes the absolute end timestamp of a booking: the
// wall-clock start on the selected date plus duration hours. Adding hours
// across midnight advances the calendar date naturally.
//
// A zero date, empty or malformed start time, or non-positive duration
// yields a zero time and an error; the caller must treat the booking as
// incomplete rather than display a bogus end time.
func DeriveEndTime(date time.Time, startTime string, durationHours int) (time.Time, error) {
	if date.IsZero() || startTime == "" {
		return time.Time{}, ErrNoStartTime
	}
	if durationHours <= 0 || durationHours > 12 {
		return time.Time{}, fmt.Errorf("%w: %d hours", ErrInvalidDuration, durationHours)
	}

	hour, minute, ok := splitClock(startTime)
	if !ok {
		return time.Time{}, fmt.Errorf("parse start time %q", startTime)
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
	return start.Add(time.Duration(durationHours) * time.Hour), nil
}
