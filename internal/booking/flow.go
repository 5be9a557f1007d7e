// Package booking models the slot-selection flow as an explicit state
// machine: pick a unit, pick a date, wait for the availability grid, pick
// a start time, pick a duration.
package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdiYohanes/mge-booking/internal/availability"
	"github.com/AdiYohanes/mge-booking/internal/metrics"
	"github.com/AdiYohanes/mge-booking/internal/slots"
)

// State represents the current step of the selection flow.
type State string

const (
	StateNoUnit       State = "no_unit"
	StateUnitSelected State = "unit_selected"
	StateSlotsLoading State = "slots_loading"
	StateSlotsReady   State = "slots_ready"
	StateTimeSelected State = "time_selected"
	StateDurationSet  State = "duration_set"
)

var (
	ErrInvalidTransition = errors.New("invalid selection transition")
	ErrNoUnitSelected    = errors.New("no unit selected")
	ErrSlotUnavailable   = errors.New("slot is not available")
)

// FSM holds the allowed transitions of the selection flow. Changing the
// unit or the date from any later step drops back to slots_loading, which
// clears the previous time selection.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates the selection-flow FSM.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateNoUnit:       {StateUnitSelected},
			StateUnitSelected: {StateUnitSelected, StateSlotsLoading},
			StateSlotsLoading: {StateSlotsLoading, StateSlotsReady, StateUnitSelected},
			StateSlotsReady:   {StateTimeSelected, StateSlotsLoading, StateUnitSelected},
			StateTimeSelected: {StateDurationSet, StateTimeSelected, StateSlotsLoading, StateUnitSelected},
			StateDurationSet:  {StateDurationSet, StateTimeSelected, StateSlotsLoading, StateUnitSelected},
		},
	}
}

// CanTransition checks whether moving from one state to another is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Session is one user's selection in progress. All mutation goes through
// the methods below, which enforce FSM transitions and the resolve
// ordering guard.
type Session struct {
	ID    string
	State State

	UnitID        int64
	Date          time.Time
	SelectedTime  string
	DurationHours int
	EndTime       time.Time

	Hours    []slots.HourSlot
	Slots    []slots.TimeSlot
	Degraded bool

	seq       uint64
	fsm       *FSM
	mu        sync.Mutex
	UpdatedAt time.Time
}

// NewSession creates an empty selection session.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     StateNoUnit,
		fsm:       NewFSM(),
		UpdatedAt: time.Now(),
	}
}

// SelectUnit sets the rental unit. Any previously loaded grid and time
// selection become stale and are cleared.
func (s *Session) SelectUnit(unitID int64) error {
	if unitID <= 0 {
		return ErrNoUnitSelected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fsm.CanTransition(s.State, StateUnitSelected) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, StateUnitSelected)
	}
	s.UnitID = unitID
	s.clearGridLocked()
	s.setStateLocked(StateUnitSelected)
	return nil
}

// SelectDate sets the calendar date and returns the resolve request the
// caller must run. The returned sequence number supersedes all earlier
// ones; results carrying an older sequence are dropped by ApplyResult.
func (s *Session) SelectDate(date time.Time) (availability.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UnitID == 0 {
		return availability.Request{}, ErrNoUnitSelected
	}
	if !s.fsm.CanTransition(s.State, StateSlotsLoading) {
		return availability.Request{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, StateSlotsLoading)
	}

	s.Date = date
	s.clearGridLocked()
	s.setStateLocked(StateSlotsLoading)

	s.seq++
	return availability.Request{UnitID: s.UnitID, Date: date, Seq: s.seq}, nil
}

// ApplyResult installs a resolve result. A result keyed to anything other
// than the current unit, date and sequence is a stale arrival from an
// abandoned selection and is ignored; the caller learns that from the
// return value.
func (s *Session) ApplyResult(res availability.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := res.Request
	if key.Seq != s.seq || key.UnitID != s.UnitID || !key.Date.Equal(s.Date) {
		metrics.IncStaleResultDropped()
		return false
	}
	if s.State != StateSlotsLoading {
		metrics.IncStaleResultDropped()
		return false
	}

	s.Hours = res.Hours
	s.Slots = res.Slots
	s.Degraded = res.Degraded
	s.setStateLocked(StateSlotsReady)
	return true
}

// SelectTime picks a start time from the loaded grid. The value must be an
// available slot of the current grid.
func (s *Session) SelectTime(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fsm.CanTransition(s.State, StateTimeSelected) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, StateTimeSelected)
	}

	found := false
	for _, slot := range s.Slots {
		if slot.StartTime == value {
			if !slot.Available {
				return fmt.Errorf("%w: %s", ErrSlotUnavailable, value)
			}
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s not in grid", ErrSlotUnavailable, value)
	}

	s.SelectedTime = value
	s.EndTime = time.Time{}
	s.DurationHours = 0
	s.setStateLocked(StateTimeSelected)
	return nil
}

// SetDuration fixes the rental duration and derives the end timestamp.
// Duration changes never refetch availability; they only re-derive the
// end time from the already selected start.
func (s *Session) SetDuration(hoursCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fsm.CanTransition(s.State, StateDurationSet) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, StateDurationSet)
	}

	end, err := slots.DeriveEndTime(s.Date, s.SelectedTime, hoursCount)
	if err != nil {
		return err
	}

	s.DurationHours = hoursCount
	s.EndTime = end
	s.setStateLocked(StateDurationSet)
	return nil
}

// Snapshot returns a copy of the externally visible selection state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:            s.ID,
		State:         s.State,
		UnitID:        s.UnitID,
		Date:          s.Date,
		SelectedTime:  s.SelectedTime,
		DurationHours: s.DurationHours,
		EndTime:       s.EndTime,
		Hours:         s.Hours,
		Degraded:      s.Degraded,
	}
}

// Snapshot is a point-in-time copy of a session for rendering.
type Snapshot struct {
	ID            string
	State         State
	UnitID        int64
	Date          time.Time
	SelectedTime  string
	DurationHours int
	EndTime       time.Time
	Hours         []slots.HourSlot
	Degraded      bool
}

// IsExpired checks whether the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.UpdatedAt) > timeout
}

func (s *Session) setStateLocked(state State) {
	s.State = state
	s.UpdatedAt = time.Now()
}

func (s *Session) clearGridLocked() {
	s.Hours = nil
	s.Slots = nil
	s.Degraded = false
	s.SelectedTime = ""
	s.DurationHours = 0
	s.EndTime = time.Time{}
}
