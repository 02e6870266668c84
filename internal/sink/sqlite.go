package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id        TEXT PRIMARY KEY,
	dyad              TEXT NOT NULL,
	initial_coherence REAL NOT NULL,
	recovery_mode     TEXT NOT NULL,
	started_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS breath_events (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL,
	dyad            TEXT NOT NULL,
	kind            TEXT NOT NULL,
	breath          INTEGER,
	coherence_after REAL,
	record_json     TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);
`
// #endregion schema

// #region sqlite-sink
// SQLite mirrors the event log into SQLite for inspection and querying.
// It is a convenience mirror, not a durability guarantee — the JSONL log
// remains the record of truth.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// DB returns the underlying *sql.DB for use by query tooling.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// #endregion sqlite-sink

// #region append
// Append inserts one event. Session-start events also upsert the session row.
func (s *SQLite) Append(ev Event) error {
	if ev.Kind == KindSessionStart && ev.Start != nil {
		_, err := s.db.Exec(
			`INSERT INTO sessions (session_id, dyad, initial_coherence, recovery_mode, started_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(session_id) DO NOTHING`,
			ev.SessionID, ev.Dyad, ev.Start.InitialCoherence, string(ev.Start.Mode),
			ev.Time.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var breath interface{}
	var after interface{}
	if ev.Breath != nil {
		breath = ev.Breath.Breath
		after = ev.Breath.CoherenceAfter
	}

	_, err = s.db.Exec(
		`INSERT INTO breath_events (session_id, dyad, kind, breath, coherence_after, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Dyad, string(ev.Kind), breath, after,
		string(data), ev.Time.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// #endregion append

// #region queries
// SessionRow summarizes one recorded session.
type SessionRow struct {
	SessionID        string
	Dyad             string
	InitialCoherence float64
	RecoveryMode     string
	StartedAt        time.Time
}

// Sessions lists recorded sessions, most recent first.
func (s *SQLite) Sessions(limit int) ([]SessionRow, error) {
	rows, err := s.db.Query(
		`SELECT session_id, dyad, initial_coherence, recovery_mode, started_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var started string
		if err := rows.Scan(&r.SessionID, &r.Dyad, &r.InitialCoherence, &r.RecoveryMode, &started); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentEvents returns the N most recent events in chronological order,
// optionally filtered by session ID.
func (s *SQLite) RecentEvents(sessionID string, limit int) ([]Event, error) {
	query := `SELECT record_json FROM breath_events`
	args := []interface{}{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows come back DESC; reverse for chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// #endregion queries
