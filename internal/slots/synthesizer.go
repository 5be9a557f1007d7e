// Package slots generates and shapes the bookable time grid for a single
// business session.
package slots

import (
	"fmt"
	"time"

	"github.com/AdiYohanes/mge-booking/internal/hours"
)

// TimeSlot is one half-hour bookable interval. StartTime and EndTime are
// wall-clock "HH:MM" strings with hours normalized into 0-23; slots derived
// from a raw business hour >= 24 fall on the next calendar day but still
// belong to this session.
type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

// Synthesize produces the full half-hour grid for the session starting on
// date, governed by rule. One slot is emitted for every half-hour boundary
// in [Start, End), so a day closing on the hour has no trailing fragment
// past closing.
//
// Availability here is purely temporal: when date is the same calendar day
// as now, any slot whose concrete start is <= now is unavailable. Slots on
// other dates are available; remote constraints are overlaid elsewhere.
//
// now is explicit so the grid is a pure function of its inputs.
func Synthesize(date time.Time, now time.Time, rule hours.Rule) []TimeSlot {
	result := make([]TimeSlot, 0, rule.SpanMinutes()/30)
	today := sameDay(date, now)

	for m := rule.Start * 60; m < rule.End*60; m += 30 {
		rawHour := m / 60
		minute := m % 60
		displayed := hours.DisplayHour(rawHour)

		slotDay := date
		if rawHour >= 24 {
			slotDay = date.AddDate(0, 0, 1)
		}
		start := time.Date(slotDay.Year(), slotDay.Month(), slotDay.Day(), displayed, minute, 0, 0, date.Location())
		end := start.Add(30 * time.Minute)

		available := true
		if today && !start.After(now) {
			available = false
		}

		result = append(result, TimeSlot{
			StartTime: fmt.Sprintf("%02d:%02d", displayed, minute),
			EndTime:   end.Format("15:04"),
			Available: available,
		})
	}

	return result
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
