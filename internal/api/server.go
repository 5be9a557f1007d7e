// Package api exposes the availability resolver and the selection flow
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdiYohanes/mge-booking/internal/availability"
	"github.com/AdiYohanes/mge-booking/internal/booking"
	"github.com/AdiYohanes/mge-booking/internal/store"
)

// UnitCatalog serves the local unit catalog.
type UnitCatalog interface {
	ListActiveUnits(ctx context.Context) ([]store.Unit, error)
	GetUnit(ctx context.Context, id int64) (*store.Unit, error)
}

// ResolveLog records resolves and aggregates them for reporting.
type ResolveLog interface {
	RecordResolve(ctx context.Context, rec store.ResolveRecord)
	OccupancyStats(ctx context.Context, from, to string) ([]store.DayStat, error)
}

// Resolver produces the slot grid for a unit/date.
type Resolver interface {
	Resolve(ctx context.Context, req availability.Request, now time.Time) (availability.Result, error)
}

// SelectionManager drives selection sessions.
type SelectionManager interface {
	Create() booking.Snapshot
	Delete(id string) error
	Snapshot(id string) (booking.Snapshot, error)
	SelectUnit(id string, unitID int64) (booking.Snapshot, error)
	SelectDate(ctx context.Context, id string, date time.Time) (booking.Snapshot, error)
	SelectTime(id, value string) (booking.Snapshot, error)
	SetDuration(id string, hoursCount int) (booking.Snapshot, error)
}

// Server is the HTTP API server.
type Server struct {
	catalog    UnitCatalog
	resolveLog ResolveLog
	resolver   Resolver
	manager    SelectionManager
	logger     *zerolog.Logger

	// ReadyChecks run on /readyz; any failure makes the service not ready.
	readyChecks []func(ctx context.Context) error

	now func() time.Time
}

// NewServer wires the API server.
func NewServer(catalog UnitCatalog, resolveLog ResolveLog, resolver Resolver, manager SelectionManager, logger *zerolog.Logger, readyChecks ...func(ctx context.Context) error) *Server {
	return &Server{
		catalog:     catalog,
		resolveLog:  resolveLog,
		resolver:    resolver,
		manager:     manager,
		logger:      logger,
		readyChecks: readyChecks,
		now:         time.Now,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/units", s.handleUnits)
	mux.HandleFunc("GET /api/v1/units/{id}/slots", s.handleUnitSlots)

	mux.HandleFunc("POST /api/v1/selections", s.handleCreateSelection)
	mux.HandleFunc("GET /api/v1/selections/{id}", s.handleGetSelection)
	mux.HandleFunc("DELETE /api/v1/selections/{id}", s.handleDeleteSelection)
	mux.HandleFunc("PUT /api/v1/selections/{id}/unit", s.handleSelectUnit)
	mux.HandleFunc("PUT /api/v1/selections/{id}/date", s.handleSelectDate)
	mux.HandleFunc("PUT /api/v1/selections/{id}/time", s.handleSelectTime)
	mux.HandleFunc("PUT /api/v1/selections/{id}/duration", s.handleSetDuration)

	mux.HandleFunc("GET /api/v1/reports/occupancy.xlsx", s.handleOccupancyReport)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	return mux
}

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	for _, check := range s.readyChecks {
		if err := check(ctx); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
