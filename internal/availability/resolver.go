// Package availability merges the locally synthesized business-hours grid
// with the backend's per-hour availability signal.
package availability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdiYohanes/mge-booking/internal/hours"
	"github.com/AdiYohanes/mge-booking/internal/metrics"
	"github.com/AdiYohanes/mge-booking/internal/rentapi"
	"github.com/AdiYohanes/mge-booking/internal/slots"
)

// RemoteSource fetches the backend's per-hour availability for a unit/date.
type RemoteSource interface {
	GetAvailableTimes(ctx context.Context, unitID int64, date time.Time) ([]rentapi.HourAvailability, error)
}

// Request identifies one resolve. Seq is assigned by the caller and echoed
// back in the Result so stale responses can be discarded after the
// selection has moved on.
type Request struct {
	UnitID int64
	Date   time.Time
	Seq    uint64
}

// Result is the resolved availability for one Request.
//
// NoSelection is set when no unit was chosen yet; it is distinct from "no
// availability" and the consumer must prompt for a unit instead of showing
// an empty grid. Degraded is set when the backend signal could not be used
// and the grid reflects business hours only.
type Result struct {
	Request Request

	NoSelection bool
	Degraded    bool

	Slots []slots.TimeSlot
	Hours []slots.HourSlot
}

// Resolver computes bookable start times for a unit on a date. It is
// stateless and safe to call concurrently for different unit/date pairs.
type Resolver struct {
	table  hours.Table
	remote RemoteSource
	logger *zerolog.Logger
}

// NewResolver builds a resolver over the given business-hours table and
// backend source.
func NewResolver(table hours.Table, remote RemoteSource, logger *zerolog.Logger) *Resolver {
	return &Resolver{table: table, remote: remote, logger: logger}
}

// Resolve produces the slot grid for req at the given wall-clock moment.
//
// Backend failures and empty responses degrade to the pure local grid:
// the user keeps a full business-hours view with fewer constraints, never
// a blocked one. The only error surfaced to callers is a missing
// business-hours rule, which means broken configuration.
func (r *Resolver) Resolve(ctx context.Context, req Request, now time.Time) (Result, error) {
	if req.UnitID == 0 {
		metrics.IncResolve(metrics.OutcomeNoSelection)
		return Result{Request: req, NoSelection: true, Slots: []slots.TimeSlot{}, Hours: []slots.HourSlot{}}, nil
	}

	rule, err := r.table.ForDate(req.Date)
	if err != nil {
		return Result{}, err
	}

	local := slots.Synthesize(req.Date, now, rule)

	entries, err := r.remote.GetAvailableTimes(ctx, req.UnitID, req.Date)
	if err != nil {
		metrics.IncRemoteFetchError()
		metrics.IncResolve(metrics.OutcomeFallback)
		r.logger.Warn().Err(err).
			Int64("unit_id", req.UnitID).
			Str("date", req.Date.Format("2006-01-02")).
			Msg("available-times fetch failed, using local grid")
		return Result{Request: req, Degraded: true, Slots: local, Hours: slots.Aggregate(local)}, nil
	}
	if len(entries) == 0 {
		metrics.IncResolve(metrics.OutcomeFallback)
		return Result{Request: req, Slots: local, Hours: slots.Aggregate(local)}, nil
	}

	merged := merge(local, entries)
	metrics.IncResolve(metrics.OutcomeOK)
	return Result{Request: req, Slots: merged, Hours: slots.Aggregate(merged)}, nil
}

// merge overlays the backend signal on the local grid. A slot whose start
// hour has a backend entry is available only if both sides agree; hours
// the backend did not mention keep their local availability.
func merge(local []slots.TimeSlot, entries []rentapi.HourAvailability) []slots.TimeSlot {
	remote := make(map[int]bool, len(entries))
	for _, entry := range entries {
		hour, ok := entry.StartHour()
		if !ok {
			continue
		}
		remote[hour] = entry.Available
	}

	merged := make([]slots.TimeSlot, len(local))
	for i, slot := range local {
		merged[i] = slot
		hour, _, ok := splitHour(slot.StartTime)
		if !ok {
			continue
		}
		if remoteAvailable, found := remote[hour]; found {
			merged[i].Available = slot.Available && remoteAvailable
		}
	}
	return merged
}

func splitHour(clock string) (hour, minute int, ok bool) {
	if len(clock) != 5 || clock[2] != ':' {
		return 0, 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if clock[i] < '0' || clock[i] > '9' {
			return 0, 0, false
		}
	}
	hour = int(clock[0]-'0')*10 + int(clock[1]-'0')
	minute = int(clock[3]-'0')*10 + int(clock[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
