package booking

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdiYohanes/mge-booking/internal/availability"
	"github.com/AdiYohanes/mge-booking/internal/hours"
	"github.com/AdiYohanes/mge-booking/internal/slots"
)

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        State
		to          State
		shouldAllow bool
	}{
		{"pick a unit", StateNoUnit, StateUnitSelected, true},
		{"pick a date", StateUnitSelected, StateSlotsLoading, true},
		{"slots arrive", StateSlotsLoading, StateSlotsReady, true},
		{"pick a time", StateSlotsReady, StateTimeSelected, true},
		{"pick a duration", StateTimeSelected, StateDurationSet, true},
		// Re-selection drops back without finishing the flow.
		{"new date after slots ready", StateSlotsReady, StateSlotsLoading, true},
		{"new date after time selected", StateTimeSelected, StateSlotsLoading, true},
		{"new unit after duration set", StateDurationSet, StateUnitSelected, true},
		{"change duration", StateDurationSet, StateDurationSet, true},
		// Steps cannot be skipped.
		{"time before slots", StateUnitSelected, StateTimeSelected, false},
		{"duration before time", StateSlotsReady, StateDurationSet, false},
		{"slots without date", StateNoUnit, StateSlotsReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := fsm.CanTransition(tt.from, tt.to)
			if allowed != tt.shouldAllow {
				t.Errorf("transition %s -> %s: expected allowed=%v, got %v",
					tt.from, tt.to, tt.shouldAllow, allowed)
			}
		})
	}
}

// 2025-03-07 is a Friday (14:00 - 01:00 session).
var friday = time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

func readyGrid(date time.Time) []slots.TimeSlot {
	rule := hours.DefaultTable()[date.Weekday()]
	return slots.Synthesize(date, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), rule)
}

func TestSessionHappyPath(t *testing.T) {
	session := NewSession()

	if session.State != StateNoUnit {
		t.Fatalf("expected initial state no_unit, got %s", session.State)
	}

	if err := session.SelectUnit(3); err != nil {
		t.Fatalf("select unit: %v", err)
	}

	req, err := session.SelectDate(friday)
	if err != nil {
		t.Fatalf("select date: %v", err)
	}
	if req.UnitID != 3 || !req.Date.Equal(friday) || req.Seq != 1 {
		t.Errorf("unexpected resolve request: %+v", req)
	}
	if session.State != StateSlotsLoading {
		t.Errorf("expected slots_loading, got %s", session.State)
	}

	grid := readyGrid(friday)
	applied := session.ApplyResult(availability.Result{
		Request: req,
		Slots:   grid,
		Hours:   slots.Aggregate(grid),
	})
	if !applied {
		t.Fatal("matching result must be applied")
	}
	if session.State != StateSlotsReady {
		t.Errorf("expected slots_ready, got %s", session.State)
	}

	if err := session.SelectTime("23:30"); err != nil {
		t.Fatalf("select time: %v", err)
	}
	if err := session.SetDuration(2); err != nil {
		t.Fatalf("set duration: %v", err)
	}

	expectedEnd := time.Date(2025, 3, 8, 1, 30, 0, 0, time.UTC)
	if !session.EndTime.Equal(expectedEnd) {
		t.Errorf("expected end %v, got %v", expectedEnd, session.EndTime)
	}
	if session.State != StateDurationSet {
		t.Errorf("expected duration_set, got %s", session.State)
	}
}

func TestSessionDropsStaleResults(t *testing.T) {
	session := NewSession()
	if err := session.SelectUnit(3); err != nil {
		t.Fatal(err)
	}

	firstReq, err := session.SelectDate(friday)
	if err != nil {
		t.Fatal(err)
	}

	// The user changes their mind before the first resolve lands.
	saturday := friday.AddDate(0, 0, 1)
	secondReq, err := session.SelectDate(saturday)
	if err != nil {
		t.Fatal(err)
	}

	staleGrid := readyGrid(friday)
	if session.ApplyResult(availability.Result{Request: firstReq, Slots: staleGrid}) {
		t.Error("stale result must be dropped")
	}
	if session.State != StateSlotsLoading {
		t.Errorf("stale result must not change state, got %s", session.State)
	}

	freshGrid := readyGrid(saturday)
	if !session.ApplyResult(availability.Result{Request: secondReq, Slots: freshGrid, Hours: slots.Aggregate(freshGrid)}) {
		t.Error("fresh result must be applied")
	}
	if session.State != StateSlotsReady {
		t.Errorf("expected slots_ready, got %s", session.State)
	}
}

func TestSessionRejectsBadTimeSelection(t *testing.T) {
	session := NewSession()
	_ = session.SelectUnit(3)
	req, _ := session.SelectDate(friday)

	grid := readyGrid(friday)
	grid[0].Available = false // "14:00"
	session.ApplyResult(availability.Result{Request: req, Slots: grid})

	if err := session.SelectTime("14:00"); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("expected ErrSlotUnavailable for a taken slot, got %v", err)
	}
	if err := session.SelectTime("09:00"); !errors.Is(err, ErrSlotUnavailable) {
		t.Errorf("expected ErrSlotUnavailable outside the grid, got %v", err)
	}
}

func TestSessionReselectionClearsTime(t *testing.T) {
	session := NewSession()
	_ = session.SelectUnit(3)
	req, _ := session.SelectDate(friday)
	grid := readyGrid(friday)
	session.ApplyResult(availability.Result{Request: req, Slots: grid})
	_ = session.SelectTime("15:00")
	_ = session.SetDuration(2)

	// Changing the date invalidates the chosen time and end time.
	if _, err := session.SelectDate(friday.AddDate(0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if session.SelectedTime != "" || !session.EndTime.IsZero() || session.DurationHours != 0 {
		t.Error("date change must clear the previous time selection")
	}
}

func TestSessionRejectsNonPositiveUnit(t *testing.T) {
	for _, unitID := range []int64{0, -1, -42} {
		session := NewSession()
		if err := session.SelectUnit(unitID); !errors.Is(err, ErrNoUnitSelected) {
			t.Errorf("unit %d: expected ErrNoUnitSelected, got %v", unitID, err)
		}
		if session.State != StateNoUnit {
			t.Errorf("unit %d: rejected selection must not change state, got %s", unitID, session.State)
		}
	}
}

func TestSessionSelectDateRequiresUnit(t *testing.T) {
	session := NewSession()
	if _, err := session.SelectDate(friday); !errors.Is(err, ErrNoUnitSelected) {
		t.Errorf("expected ErrNoUnitSelected, got %v", err)
	}
}

type fakeResolver struct {
	calls int
	grid  func(date time.Time) []slots.TimeSlot
}

func (f *fakeResolver) Resolve(_ context.Context, req availability.Request, _ time.Time) (availability.Result, error) {
	f.calls++
	grid := f.grid(req.Date)
	return availability.Result{Request: req, Slots: grid, Hours: slots.Aggregate(grid)}, nil
}

type fakeNotifier struct {
	snaps []Snapshot
}

func (f *fakeNotifier) SelectionComplete(snap Snapshot) {
	f.snaps = append(f.snaps, snap)
}

func TestManagerFlow(t *testing.T) {
	logger := zerolog.New(io.Discard)
	resolver := &fakeResolver{grid: readyGrid}
	notifier := &fakeNotifier{}
	manager := NewManager(NewSessionStore(time.Minute), resolver, notifier, &logger)

	snap := manager.Create()
	if snap.State != StateNoUnit {
		t.Fatalf("expected no_unit, got %s", snap.State)
	}

	if _, err := manager.SelectUnit(snap.ID, 3); err != nil {
		t.Fatal(err)
	}
	snap, err := manager.SelectDate(context.Background(), snap.ID, friday)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateSlotsReady {
		t.Errorf("expected slots_ready, got %s", snap.State)
	}
	if len(snap.Hours) == 0 {
		t.Error("expected hour groups in snapshot")
	}

	if _, err := manager.SelectTime(snap.ID, "15:00"); err != nil {
		t.Fatal(err)
	}
	snap, err = manager.SetDuration(snap.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != StateDurationSet {
		t.Errorf("expected duration_set, got %s", snap.State)
	}

	if len(notifier.snaps) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.snaps))
	}

	// A duration change re-derives the end time without refetching.
	resolves := resolver.calls
	snap, err = manager.SetDuration(snap.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if resolver.calls != resolves {
		t.Error("duration change must not trigger a resolve")
	}
	expectedEnd := time.Date(2025, 3, 7, 18, 0, 0, 0, time.UTC)
	if !snap.EndTime.Equal(expectedEnd) {
		t.Errorf("expected end %v, got %v", expectedEnd, snap.EndTime)
	}
}

func TestManagerDurationLimits(t *testing.T) {
	logger := zerolog.New(io.Discard)
	manager := NewManager(NewSessionStore(time.Minute), &fakeResolver{grid: readyGrid}, nil, &logger)
	manager.SetDurationLimits(1, 5)

	snap := manager.Create()
	_, _ = manager.SelectUnit(snap.ID, 3)
	_, _ = manager.SelectDate(context.Background(), snap.ID, friday)
	_, _ = manager.SelectTime(snap.ID, "15:00")

	if _, err := manager.SetDuration(snap.ID, 6); !errors.Is(err, slots.ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration above the cap, got %v", err)
	}
	if _, err := manager.SetDuration(snap.ID, 5); err != nil {
		t.Errorf("5 hours is within limits: %v", err)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	logger := zerolog.New(io.Discard)
	manager := NewManager(NewSessionStore(time.Minute), &fakeResolver{grid: readyGrid}, nil, &logger)

	if _, err := manager.Snapshot("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerDelete(t *testing.T) {
	logger := zerolog.New(io.Discard)
	manager := NewManager(NewSessionStore(time.Minute), &fakeResolver{grid: readyGrid}, nil, &logger)

	snap := manager.Create()
	if err := manager.Delete(snap.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := manager.Snapshot(snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("deleted session must be gone, got %v", err)
	}
	if err := manager.Delete(snap.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on double delete, got %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)
	session := store.Create()

	if store.Get(session.ID) == nil {
		t.Fatal("fresh session should be retrievable")
	}

	time.Sleep(20 * time.Millisecond)

	if store.Get(session.ID) != nil {
		t.Error("expired session must not be returned")
	}
	if removed := store.Cleanup(); removed != 1 {
		t.Errorf("expected 1 removed session, got %d", removed)
	}
}
