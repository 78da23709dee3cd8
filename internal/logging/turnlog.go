package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
// TurnLogSchema creates the turn_log table. It lives next to the session
// tables in the long-term store database.
const TurnLogSchema = `
CREATE TABLE IF NOT EXISTS turn_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id       TEXT NOT NULL,
	session_id    TEXT NOT NULL,
	intent        TEXT NOT NULL,
	query         TEXT,
	event_kind    TEXT,
	error_kind    TEXT,
	diff_json     TEXT,
	speech        TEXT,
	created_at    TEXT NOT NULL
);
`

// EnsureTurnLog runs the turn_log migration.
func EnsureTurnLog(db *sql.DB) error {
	if _, err := db.Exec(TurnLogSchema); err != nil {
		return fmt.Errorf("migrate turn_log: %w", err)
	}
	return nil
}

// #endregion schema

// #region turn-log-entry
// TurnLogEntry is a single row in the turn_log table. Failed turns are
// logged too, with ErrorKind set and EventKind empty.
type TurnLogEntry struct {
	TurnID    string
	SessionID string
	Intent    string
	Query     string
	EventKind string
	ErrorKind string
	DiffJSON  string
	Speech    string
	CreatedAt time.Time
}

// #endregion turn-log-entry

// #region log-turn
// LogTurn writes one turn outcome to the turn_log table.
func LogTurn(db *sql.DB, entry TurnLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO turn_log (turn_id, session_id, intent, query, event_kind, error_kind, diff_json, speech, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.TurnID,
		entry.SessionID,
		entry.Intent,
		nullIfEmpty(entry.Query),
		nullIfEmpty(entry.EventKind),
		nullIfEmpty(entry.ErrorKind),
		nullIfEmpty(entry.DiffJSON),
		nullIfEmpty(entry.Speech),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log turn: %w", err)
	}
	return nil
}

// #endregion log-turn

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
