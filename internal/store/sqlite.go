package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"

	"github.com/ppiankov/candidstance/internal/model"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// SQLiteStore persists records in a SQLite database.
// Stances are stored as a JSON document in a single column.
type SQLiteStore struct {
	db    *sql.DB
	clock clock.Clock
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string, clk clock.Clock) (*SQLiteStore, error) {
	if clk == nil {
		clk = clock.WallClock
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, clock: clk}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		normalized_name TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		stances TEXT NOT NULL,
		search_count INTEGER NOT NULL DEFAULT 0,
		last_updated TEXT NOT NULL,
		last_searched TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Find returns the record for name
func (s *SQLiteStore) Find(ctx context.Context, name string) (*model.CandidateRecord, error) {
	key, err := normalizedKey(name)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, normalized_name, stances, search_count, last_updated, last_searched
		FROM candidates WHERE normalized_name = ?`, key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	return rec, nil
}

// Upsert inserts the record or replaces its stances and bumps the count in one statement
func (s *SQLiteStore) Upsert(ctx context.Context, name string, stances []model.PoliticalStance) (*model.CandidateRecord, error) {
	key, err := normalizedKey(name)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cloneStances(stances))
	if err != nil {
		return nil, fmt.Errorf("marshal stances: %w", err)
	}

	now := s.clock.Now().UTC().Format(time.RFC3339Nano)

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO candidates (normalized_name, name, stances, search_count, last_updated, last_searched)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(normalized_name) DO UPDATE SET
			name = excluded.name,
			stances = excluded.stances,
			search_count = candidates.search_count + 1,
			last_updated = excluded.last_updated,
			last_searched = excluded.last_searched
		RETURNING name, normalized_name, stances, search_count, last_updated, last_searched`,
		key, name, string(data), now, now)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("upsert candidate: %w", err)
	}
	return rec, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(row *sql.Row) (*model.CandidateRecord, error) {
	var (
		rec          model.CandidateRecord
		stances      string
		lastUpdated  string
		lastSearched string
	)

	if err := row.Scan(&rec.Name, &rec.NormalizedName, &stances, &rec.SearchCount, &lastUpdated, &lastSearched); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(stances), &rec.Stances); err != nil {
		return nil, fmt.Errorf("decode stances: %w", err)
	}

	var err error
	if rec.LastUpdated, err = time.Parse(time.RFC3339Nano, lastUpdated); err != nil {
		return nil, fmt.Errorf("parse last_updated: %w", err)
	}
	if rec.LastSearched, err = time.Parse(time.RFC3339Nano, lastSearched); err != nil {
		return nil, fmt.Errorf("parse last_searched: %w", err)
	}

	return &rec, nil
}
