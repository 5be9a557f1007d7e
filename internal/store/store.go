// Package store persists the unit catalog and the resolve log in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Unit is a rental unit (console or room) in the local catalog.
type Unit struct {
	ID           int64
	Name         string
	Kind         string // "console" or "room"
	Active       bool
	DisplayOrder int64
}

// ResolveRecord is one row of the resolve log, used for occupancy stats.
type ResolveRecord struct {
	UnitID         int64
	Date           string // YYYY-MM-DD
	SlotCount      int
	AvailableCount int
	Degraded       bool
	CreatedAt      time.Time
}

// DayStat aggregates the resolve log per unit and date.
type DayStat struct {
	Date           string
	UnitID         int64
	UnitName       string
	Resolves       int
	SlotCount      int
	AvailableCount int
	DegradedCount  int
}

// Store wraps the SQLite connection.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// New opens the database at path and runs migrations.
func New(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &Store{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'console',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			display_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS resolve_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			unit_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			slot_count INTEGER NOT NULL,
			available_count INTEGER NOT NULL,
			degraded BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_resolve_log_date ON resolve_log(date)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// UpsertUnit inserts or updates a catalog unit.
func (s *Store) UpsertUnit(ctx context.Context, u Unit) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO units (id, name, kind, is_active, display_order)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			is_active = excluded.is_active,
			display_order = excluded.display_order,
			updated_at = CURRENT_TIMESTAMP`,
		u.ID, u.Name, u.Kind, u.Active, u.DisplayOrder,
	)
	if err != nil {
		return fmt.Errorf("upsert unit %d: %w", u.ID, err)
	}
	return nil
}

// ListActiveUnits returns active units in display order.
func (s *Store) ListActiveUnits(ctx context.Context) ([]Unit, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, name, kind, is_active, display_order
		FROM units
		WHERE is_active = 1
		ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.ID, &u.Name, &u.Kind, &u.Active, &u.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// GetUnit returns one unit or sql.ErrNoRows.
func (s *Store) GetUnit(ctx context.Context, id int64) (*Unit, error) {
	var u Unit
	err := s.QueryRowContext(ctx, `
		SELECT id, name, kind, is_active, display_order
		FROM units WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Kind, &u.Active, &u.DisplayOrder)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RecordResolve appends one resolve to the log. Errors are logged, not
// returned: the log is advisory and must never fail a resolve.
func (s *Store) RecordResolve(ctx context.Context, rec ResolveRecord) {
	_, err := s.ExecContext(ctx, `
		INSERT INTO resolve_log (unit_id, date, slot_count, available_count, degraded)
		VALUES (?, ?, ?, ?, ?)`,
		rec.UnitID, rec.Date, rec.SlotCount, rec.AvailableCount, rec.Degraded,
	)
	if err != nil {
		s.logger.Error().Err(err).Int64("unit_id", rec.UnitID).Msg("record resolve failed")
	}
}

// OccupancyStats aggregates the resolve log between two dates inclusive.
func (s *Store) OccupancyStats(ctx context.Context, from, to string) ([]DayStat, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT r.date, r.unit_id, COALESCE(u.name, ''),
			COUNT(*), MAX(r.slot_count), MIN(r.available_count),
			SUM(CASE WHEN r.degraded THEN 1 ELSE 0 END)
		FROM resolve_log r
		LEFT JOIN units u ON u.id = r.unit_id
		WHERE r.date >= ? AND r.date <= ?
		GROUP BY r.date, r.unit_id
		ORDER BY r.date, r.unit_id`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("occupancy stats: %w", err)
	}
	defer rows.Close()

	var stats []DayStat
	for rows.Next() {
		var st DayStat
		if err := rows.Scan(&st.Date, &st.UnitID, &st.UnitName, &st.Resolves, &st.SlotCount, &st.AvailableCount, &st.DegradedCount); err != nil {
			return nil, fmt.Errorf("scan stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
