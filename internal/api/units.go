package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AdiYohanes/mge-booking/internal/availability"
	"github.com/AdiYohanes/mge-booking/internal/metrics"
	"github.com/AdiYohanes/mge-booking/internal/slots"
	"github.com/AdiYohanes/mge-booking/internal/store"
)

// UnitResponse is one unit in API responses.
type UnitResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Active bool   `json:"active"`
}

// SlotsResponse is the resolved grid for a unit/date.
type SlotsResponse struct {
	UnitID         int64            `json:"unit_id"`
	Date           string           `json:"date"`
	Degraded       bool             `json:"degraded"`
	AvailableCount int              `json:"available_count"`
	Hours          []slots.HourSlot `json:"hours"`
	Slots          []slots.TimeSlot `json:"slots"`
}

// handleUnits returns the active unit catalog.
// GET /api/v1/units
func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("units")

	units, err := s.catalog.ListActiveUnits(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list units failed")
		writeError(w, http.StatusInternalServerError, "failed to list units")
		return
	}

	resp := make([]UnitResponse, 0, len(units))
	for _, u := range units {
		resp = append(resp, UnitResponse{ID: u.ID, Name: u.Name, Kind: u.Kind, Active: u.Active})
	}
	writeJSON(w, http.StatusOK, map[string]any{"units": resp})
}

// handleUnitSlots resolves the bookable grid for one unit and date.
// GET /api/v1/units/{id}/slots?date=YYYY-MM-DD
func (s *Server) handleUnitSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("unit_slots")

	unitID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || unitID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid unit id")
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date is required; expected YYYY-MM-DD")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	if _, err := s.catalog.GetUnit(r.Context(), unitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "unit not found")
			return
		}
		s.logger.Error().Err(err).Int64("unit_id", unitID).Msg("get unit failed")
		writeError(w, http.StatusInternalServerError, "failed to load unit")
		return
	}

	result, err := s.resolver.Resolve(r.Context(), availability.Request{UnitID: unitID, Date: date}, s.now())
	if err != nil {
		s.logger.Error().Err(err).Int64("unit_id", unitID).Msg("resolve failed")
		writeError(w, http.StatusInternalServerError, "failed to resolve availability")
		return
	}

	available := 0
	for _, slot := range result.Slots {
		if slot.Available {
			available++
		}
	}

	s.resolveLog.RecordResolve(r.Context(), store.ResolveRecord{
		UnitID:         unitID,
		Date:           dateStr,
		SlotCount:      len(result.Slots),
		AvailableCount: available,
		Degraded:       result.Degraded,
	})

	writeJSON(w, http.StatusOK, SlotsResponse{
		UnitID:         unitID,
		Date:           dateStr,
		Degraded:       result.Degraded,
		AvailableCount: available,
		Hours:          result.Hours,
		Slots:          result.Slots,
	})
}
