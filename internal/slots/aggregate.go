package slots

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/AdiYohanes/mge-booking/internal/hours"
)

// MinuteSlot is a selectable leaf in the hour/minute picker.
type MinuteSlot struct {
	Label     string `json:"label"` // "03:30 PM"
	Value     string `json:"value"` // "15:30"
	Available bool   `json:"available"`
}

// HourSlot groups the minute slots of one displayed hour. Available is true
// iff at least one contained minute is available.
type HourSlot struct {
	Hour      int          `json:"hour"`
	Label     string       `json:"label"` // "15:00"
	Available bool         `json:"available"`
	Minutes   []MinuteSlot `json:"minutes"`
}

// Aggregate folds a flat slot list into per-hour groups for two-level
// selection. Slots whose minute component is not exactly 0 or 30 are
// dropped as malformed. Hours are ordered in session order: 00:xx and
// 01:xx sort after 23:xx because they are the post-midnight tail of a
// session that began the previous afternoon.
func Aggregate(flat []TimeSlot) []HourSlot {
	byHour := make(map[int]*HourSlot)
	order := make([]int, 0, len(flat))

	for _, slot := range flat {
		hour, minute, ok := splitClock(slot.StartTime)
		if !ok || (minute != 0 && minute != 30) {
			continue
		}

		group, seen := byHour[hour]
		if !seen {
			group = &HourSlot{
				Hour:  hour,
				Label: clockString(hour, 0),
			}
			byHour[hour] = group
			order = append(order, hour)
		}

		group.Minutes = append(group.Minutes, MinuteSlot{
			Label:     meridiemLabel(hour, minute),
			Value:     clockString(hour, minute),
			Available: slot.Available,
		})
		if slot.Available {
			group.Available = true
		}
	}

	sort.Slice(order, func(i, j int) bool {
		return sessionLess(order[i], 0, order[j], 0)
	})

	result := make([]HourSlot, 0, len(order))
	for _, hour := range order {
		group := byHour[hour]
		sort.Slice(group.Minutes, func(i, j int) bool {
			hi, mi, _ := splitClock(group.Minutes[i].Value)
			hj, mj, _ := splitClock(group.Minutes[j].Value)
			return sessionLess(hi, mi, hj, mj)
		})
		result = append(result, *group)
	}
	return result
}

func splitClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func clockString(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
}

func meridiemLabel(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("03:04 PM")
}

func sessionLess(h1, m1, h2, m2 int) bool {
	k1 := sessionMinutes(h1, m1)
	k2 := sessionMinutes(h2, m2)
	return k1 < k2
}

func sessionMinutes(hour, minute int) int {
	return hours.SessionKey(hour)*60 + minute
}
