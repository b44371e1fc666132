// Package store persists empire snapshots and the progression event
// log in a single sqlite file. Empires are stored as JSON blobs with a
// version column; saves are optimistic, so a writer holding stale state
// can never clobber a newer snapshot.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/castevet/empire-core/internal/empire"
	"github.com/castevet/empire-core/internal/models"
)

// ErrNotFound is returned when an empire id has no snapshot
var ErrNotFound = errors.New("empire not found")

// ErrVersionConflict is returned when a save carries a version no newer
// than the stored one
var ErrVersionConflict = errors.New("stale empire version")

const schema = `
CREATE TABLE IF NOT EXISTS empires (
	id         TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	state      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	empire_id TEXT NOT NULL,
	type      TEXT NOT NULL,
	payload   TEXT NOT NULL,
	at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_empire ON events(empire_id, seq);
`

// Store is a sqlite-backed snapshot and event store. A single
// connection keeps sqlite in single-writer discipline; the engine's
// per-empire locks serialize logical writes above it.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveEmpire upserts a snapshot. The write succeeds only if the
// snapshot's version is strictly newer than the stored one.
func (s *Store) SaveEmpire(e *models.Empire) error {
	state, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode empire %s: %w", e.ID, err)
	}
	res, err := s.db.Exec(`
		INSERT INTO empires (id, version, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			state = excluded.state,
			updated_at = excluded.updated_at
		WHERE empires.version < excluded.version`,
		e.ID, e.Version, string(state), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save empire %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save empire %s: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("save empire %s at version %d: %w", e.ID, e.Version, ErrVersionConflict)
	}
	return nil
}

// LoadEmpire reads and validates the snapshot for an empire id
func (s *Store) LoadEmpire(id string) (*models.Empire, error) {
	var state string
	err := s.db.QueryRow(`SELECT state FROM empires WHERE id = ?`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("empire %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load empire %s: %w", id, err)
	}
	var e models.Empire
	if err := json.Unmarshal([]byte(state), &e); err != nil {
		return nil, fmt.Errorf("decode empire %s: %w", id, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("stored empire %s: %w", id, err)
	}
	return &e, nil
}

// ListEmpireIDs returns every stored empire id in insertion order
func (s *Store) ListEmpireIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM empires ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list empires: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list empires: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendEvent writes a progression event to the log
func (s *Store) AppendEvent(ev empire.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO events (empire_id, type, payload, at) VALUES (?, ?, ?, ?)`,
		ev.EmpireID, string(ev.Type), string(payload), ev.At.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events returns up to limit most recent events for an empire, oldest
// first
func (s *Store) Events(empireID string, limit int) ([]empire.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT payload FROM (
			SELECT seq, payload FROM events WHERE empire_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, empireID, limit)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()
	var out []empire.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		var ev empire.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
