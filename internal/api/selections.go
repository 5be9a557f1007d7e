package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/AdiYohanes/mge-booking/internal/booking"
	"github.com/AdiYohanes/mge-booking/internal/metrics"
	"github.com/AdiYohanes/mge-booking/internal/slots"
)

// SelectionResponse is the externally visible state of a selection flow.
type SelectionResponse struct {
	ID            string           `json:"id"`
	State         string           `json:"state"`
	UnitID        int64            `json:"unit_id,omitempty"`
	Date          string           `json:"date,omitempty"`
	SelectedTime  string           `json:"selected_time,omitempty"`
	DurationHours int              `json:"duration_hours,omitempty"`
	EndTime       string           `json:"end_time,omitempty"`
	Degraded      bool             `json:"degraded,omitempty"`
	Hours         []slots.HourSlot `json:"hours,omitempty"`
}

func selectionResponse(snap booking.Snapshot) SelectionResponse {
	resp := SelectionResponse{
		ID:            snap.ID,
		State:         string(snap.State),
		UnitID:        snap.UnitID,
		SelectedTime:  snap.SelectedTime,
		DurationHours: snap.DurationHours,
		Degraded:      snap.Degraded,
		Hours:         snap.Hours,
	}
	if !snap.Date.IsZero() {
		resp.Date = snap.Date.Format("2006-01-02")
	}
	if !snap.EndTime.IsZero() {
		resp.EndTime = snap.EndTime.Format(time.RFC3339)
	}
	return resp
}

func (s *Server) writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "selection session not found")
	case errors.Is(err, booking.ErrNoUnitSelected):
		writeError(w, http.StatusBadRequest, "select a unit first")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, slots.ErrNoStartTime), errors.Is(err, slots.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("selection flow error")
		writeError(w, http.StatusInternalServerError, "selection update failed")
	}
}

// handleCreateSelection starts a new selection flow.
// POST /api/v1/selections
func (s *Server) handleCreateSelection(w http.ResponseWriter, _ *http.Request) {
	metrics.IncHTTP("selection_create")
	writeJSON(w, http.StatusCreated, selectionResponse(s.manager.Create()))
}

// handleGetSelection returns the current flow state.
// GET /api/v1/selections/{id}
func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection_get")

	snap, err := s.manager.Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse(snap))
}

// handleDeleteSelection abandons a selection flow.
// DELETE /api/v1/selections/{id}
func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection_delete")

	if err := s.manager.Delete(r.PathValue("id")); err != nil {
		s.writeFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectUnit sets the rental unit.
// PUT /api/v1/selections/{id}/unit
func (s *Server) handleSelectUnit(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection_unit")

	var req struct {
		UnitID int64 `json:"unit_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	snap, err := s.manager.SelectUnit(r.PathValue("id"), req.UnitID)
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse(snap))
}

// handleSelectDate sets the date and loads the availability grid.
// PUT /api/v1/selections/{id}/date
func (s *Server) handleSelectDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection_date")

	var req struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	snap, err := s.manager.SelectDate(r.Context(), r.PathValue("id"), date)
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse(snap))
}

// handleSelectTime picks a start time from the loaded grid.
// PUT /api/v1/selections/{id}/time
func (s *Server) handleSelectTime(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection_time")

	var req struct {
		Time string `json:"time"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	snap, err := s.manager.SelectTime(r.PathValue("id"), req.Time)
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse(snap))
}

// handleSetDuration fixes the duration and derives the end time.
// PUT /api/v1/selections/{id}/duration
func (s *Server) handleSetDuration(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection_duration")

	var req struct {
		Hours int `json:"hours"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	snap, err := s.manager.SetDuration(r.PathValue("id"), req.Hours)
	if err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse(snap))
}
