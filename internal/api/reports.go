package api

import (
	"net/http"
	"time"

	"github.com/AdiYohanes/mge-booking/internal/metrics"
	"github.com/AdiYohanes/mge-booking/internal/report"
)

// handleOccupancyReport streams the occupancy workbook for a date range.
// GET /api/v1/reports/occupancy.xlsx?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *Server) handleOccupancyReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("occupancy_report")

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required; expected YYYY-MM-DD")
		return
	}
	for _, v := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
	}
	if from > to {
		writeError(w, http.StatusBadRequest, "from must be before or equal to to")
		return
	}

	stats, err := s.resolveLog.OccupancyStats(r.Context(), from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("occupancy stats failed")
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="occupancy_`+from+`_`+to+`.xlsx"`)
	if err := report.WriteOccupancy(w, stats); err != nil {
		s.logger.Error().Err(err).Msg("write occupancy report failed")
	}
}
