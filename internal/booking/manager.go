package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdiYohanes/mge-booking/internal/availability"
	"github.com/AdiYohanes/mge-booking/internal/slots"
)

// ErrSessionNotFound means the session ID is unknown or has expired.
var ErrSessionNotFound = errors.New("selection session not found")

// AvailabilityResolver produces the slot grid for a resolve request.
type AvailabilityResolver interface {
	Resolve(ctx context.Context, req availability.Request, now time.Time) (availability.Result, error)
}

// Notifier is told about completed selections. Implementations must not
// block the flow; failures are theirs to log.
type Notifier interface {
	SelectionComplete(snap Snapshot)
}

// Manager drives selection sessions through the flow, running resolves and
// applying their results under the ordering guard.
type Manager struct {
	sessions *SessionStore
	resolver AvailabilityResolver
	notifier Notifier
	logger   *zerolog.Logger

	minDuration int
	maxDuration int

	now func() time.Time
}

// NewManager wires a manager. notifier may be nil.
func NewManager(sessions *SessionStore, resolver AvailabilityResolver, notifier Notifier, logger *zerolog.Logger) *Manager {
	return &Manager{
		sessions:    sessions,
		resolver:    resolver,
		notifier:    notifier,
		logger:      logger,
		minDuration: 1,
		maxDuration: 5,
		now:         time.Now,
	}
}

// SetDurationLimits overrides the allowed rental duration range in hours.
func (m *Manager) SetDurationLimits(min, max int) {
	if min > 0 && max >= min {
		m.minDuration = min
		m.maxDuration = max
	}
}

// Create starts a new selection session.
func (m *Manager) Create() Snapshot {
	return m.sessions.Create().Snapshot()
}

// Delete discards a session, abandoning the selection flow.
func (m *Manager) Delete(id string) error {
	if m.sessions.Get(id) == nil {
		return ErrSessionNotFound
	}
	m.sessions.Delete(id)
	return nil
}

// Snapshot returns the current state of a session.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	session := m.sessions.Get(id)
	if session == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// SelectUnit sets the rental unit on a session.
func (m *Manager) SelectUnit(id string, unitID int64) (Snapshot, error) {
	session := m.sessions.Get(id)
	if session == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	if err := session.SelectUnit(unitID); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// SelectDate sets the date and resolves the availability grid for it. The
// resolve result is applied only if the selection has not moved on while
// the fetch was in flight.
func (m *Manager) SelectDate(ctx context.Context, id string, date time.Time) (Snapshot, error) {
	session := m.sessions.Get(id)
	if session == nil {
		return Snapshot{}, ErrSessionNotFound
	}

	req, err := session.SelectDate(date)
	if err != nil {
		return Snapshot{}, err
	}

	result, err := m.resolver.Resolve(ctx, req, m.now())
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve availability: %w", err)
	}
	if !session.ApplyResult(result) {
		m.logger.Debug().
			Str("session_id", id).
			Uint64("seq", req.Seq).
			Msg("dropped stale availability result")
	}
	return session.Snapshot(), nil
}

// SelectTime picks a start time from the loaded grid.
func (m *Manager) SelectTime(id, value string) (Snapshot, error) {
	session := m.sessions.Get(id)
	if session == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	if err := session.SelectTime(value); err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// SetDuration fixes the duration, derives the end time and notifies about
// the completed selection.
func (m *Manager) SetDuration(id string, hoursCount int) (Snapshot, error) {
	session := m.sessions.Get(id)
	if session == nil {
		return Snapshot{}, ErrSessionNotFound
	}
	if hoursCount < m.minDuration || hoursCount > m.maxDuration {
		return Snapshot{}, fmt.Errorf("%w: %d hours (allowed %d-%d)", slots.ErrInvalidDuration, hoursCount, m.minDuration, m.maxDuration)
	}
	if err := session.SetDuration(hoursCount); err != nil {
		return Snapshot{}, err
	}

	snap := session.Snapshot()
	if m.notifier != nil {
		m.notifier.SelectionComplete(snap)
	}
	return snap, nil
}

// StartCleanup expires idle sessions until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.sessions.Cleanup(); removed > 0 {
				m.logger.Debug().Int("removed", removed).Msg("expired selection sessions cleaned up")
			}
		}
	}
}
