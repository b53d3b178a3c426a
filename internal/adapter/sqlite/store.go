// Package sqlite is the snapshot store: a SQLite database of cities and
// yearly raw signal observations, read through domain.Source.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	_ "modernc.org/sqlite" // driver: sqlite
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cities (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		population     REAL NOT NULL DEFAULT 0,
		gdp_per_capita REAL NOT NULL DEFAULT 0,
		area_km2       REAL NOT NULL DEFAULT 0,
		buffer_m       REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		city_id TEXT    NOT NULL REFERENCES cities(id) ON DELETE CASCADE,
		family  TEXT    NOT NULL,
		signal  TEXT    NOT NULL,
		year    INTEGER NOT NULL,
		value   REAL,
		PRIMARY KEY (city_id, family, signal, year)
	)`,
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads and writes the snapshot database. It implements domain.Source.
type Store struct {
	db *sql.DB
	q  querier
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	s := &Store{db: db, q: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// WithTx runs fn against a Store bound to a transaction, committing if fn
// returns nil and rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// UpsertCity inserts or replaces a city's static attributes.
func (s *Store) UpsertCity(ctx context.Context, c domain.City) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO cities (id, name, population, gdp_per_capita, area_km2, buffer_m)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			population = excluded.population,
			gdp_per_capita = excluded.gdp_per_capita,
			area_km2 = excluded.area_km2,
			buffer_m = excluded.buffer_m`,
		c.ID, c.Name, c.Population, c.GDPPerCapita, c.AreaKm2, c.BufferM)
	if err != nil {
		return fmt.Errorf("sqlite: upsert city %s: %w", c.ID, err)
	}
	return nil
}

// PutObservation stores one yearly value. A missing value is stored as NULL
// so that an explicit gap shadows older years.
func (s *Store) PutObservation(ctx context.Context, cityID string, sig domain.Signal, year int, v domain.Value) error {
	var value sql.NullFloat64
	if f, ok := v.Get(); ok {
		value = sql.NullFloat64{Float64: f, Valid: true}
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO observations (city_id, family, signal, year, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(city_id, family, signal, year) DO UPDATE SET value = excluded.value`,
		cityID, string(sig.Family), sig.Name, year, value)
	if err != nil {
		return fmt.Errorf("sqlite: put %s %s %d: %w", cityID, sig, year, err)
	}
	return nil
}

// Cities implements domain.Source.
func (s *Store) Cities(ctx context.Context) ([]domain.City, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, population, gdp_per_capita, area_km2, buffer_m
		FROM cities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list cities: %w", err)
	}
	defer rows.Close()

	var out []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Population, &c.GDPPerCapita, &c.AreaKm2, &c.BufferM); err != nil {
			return nil, fmt.Errorf("sqlite: scan city: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list cities: %w", err)
	}
	return out, nil
}

// Lookup implements domain.Source. It reads the latest year not after the
// requested one; year 0 reads the latest year overall.
func (s *Store) Lookup(ctx context.Context, cityID string, sig domain.Signal, year int) (domain.Value, error) {
	var value sql.NullFloat64
	err := s.q.QueryRowContext(ctx, `
		SELECT value FROM observations
		WHERE city_id = ? AND family = ? AND signal = ? AND (? = 0 OR year <= ?)
		ORDER BY year DESC
		LIMIT 1`,
		cityID, string(sig.Family), sig.Name, year, year).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Missing(), nil
	}
	if err != nil {
		return domain.Missing(), fmt.Errorf("sqlite: lookup %s %s: %w", cityID, sig, err)
	}
	if !value.Valid {
		return domain.Missing(), nil
	}
	return domain.Of(value.Float64), nil
}
