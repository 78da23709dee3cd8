package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	started_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_turns (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id       TEXT NOT NULL UNIQUE,
	session_id    TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	intent        TEXT NOT NULL,
	event_kind    TEXT NOT NULL,
	state_json    TEXT NOT NULL,
	compare_json  TEXT,
	history_json  TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_session_turns_user
ON session_turns(user_id, session_id, id);
`
// #endregion schema

// #region turn-record
// TurnRecord is one persisted turn: the committed state and the history as
// it stood after the turn. HistoryJSON is owned by the history package.
type TurnRecord struct {
	TurnID       string
	SessionID    string
	UserID       string
	Intent       string
	EventKind    string
	State        ConversationState
	CompareState ConversationState
	HistoryJSON  string
	CreatedAt    time.Time
}
// #endregion turn-record

// #region store-struct
// Store is the long-term session store used to restore a user's previous
// session.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
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
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an already migrated database.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region record-turn
// RecordTurn inserts a turn, creating its session row on first sight.
func (s *Store) RecordTurn(rec TurnRecord) error {
	if rec.SessionID == "" || rec.UserID == "" {
		return fmt.Errorf("record turn: session and user id required")
	}
	if rec.TurnID == "" {
		rec.TurnID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	var comparePtr interface{}
	if !rec.CompareState.IsEmpty() {
		b, err := json.Marshal(rec.CompareState)
		if err != nil {
			return fmt.Errorf("marshal compare state: %w", err)
		}
		comparePtr = string(b)
	}
	var historyPtr interface{}
	if rec.HistoryJSON != "" {
		historyPtr = rec.HistoryJSON
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_id, user_id, started_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		rec.SessionID, rec.UserID, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO session_turns (turn_id, session_id, user_id, intent, event_kind, state_json, compare_json, history_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TurnID, rec.SessionID, rec.UserID, rec.Intent, rec.EventKind,
		string(stateJSON), comparePtr, historyPtr, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	return tx.Commit()
}
// #endregion record-turn

// #region prior-session
// MostRecentPriorSession returns the latest session of userID other than
// currentSessionID that has at least one recorded turn.
func (s *Store) MostRecentPriorSession(userID, currentSessionID string) (string, bool, error) {
	var sessionID string
	err := s.db.QueryRow(
		`SELECT session_id FROM session_turns
		 WHERE user_id = ? AND session_id != ?
		 ORDER BY id DESC LIMIT 1`, userID, currentSessionID,
	).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prior session for %s: %w", userID, err)
	}
	return sessionID, true, nil
}
// #endregion prior-session

// #region most-recent-turn
// MostRecentTurn returns the last turn recorded for the session.
func (s *Store) MostRecentTurn(userID, sessionID string) (TurnRecord, bool, error) {
	row := s.db.QueryRow(
		`SELECT turn_id, session_id, user_id, intent, event_kind, state_json, compare_json, history_json, created_at
		 FROM session_turns WHERE user_id = ? AND session_id = ?
		 ORDER BY id DESC LIMIT 1`, userID, sessionID,
	)
	rec, err := scanTurn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TurnRecord{}, false, nil
	}
	if err != nil {
		return TurnRecord{}, false, fmt.Errorf("most recent turn %s: %w", sessionID, err)
	}
	return rec, true, nil
}
// #endregion most-recent-turn

// #region list-turns
// ListTurns returns the most recent turns, newest first. An empty userID
// lists turns of every user.
func (s *Store) ListTurns(userID string, limit int) ([]TurnRecord, error) {
	query := `SELECT turn_id, session_id, user_id, intent, event_kind, state_json, compare_json, history_json, created_at
		 FROM session_turns`
	args := []interface{}{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		rec, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-turns

// #region scan
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTurn(r rowScanner) (TurnRecord, error) {
	var rec TurnRecord
	var stateJSON string
	var compareJSON, historyJSON sql.NullString
	var createdStr string

	if err := r.Scan(&rec.TurnID, &rec.SessionID, &rec.UserID, &rec.Intent, &rec.EventKind,
		&stateJSON, &compareJSON, &historyJSON, &createdStr); err != nil {
		return TurnRecord{}, err
	}
	if err := json.Unmarshal([]byte(stateJSON), &rec.State); err != nil {
		return TurnRecord{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if compareJSON.Valid {
		if err := json.Unmarshal([]byte(compareJSON.String), &rec.CompareState); err != nil {
			return TurnRecord{}, fmt.Errorf("unmarshal compare state: %w", err)
		}
	}
	if historyJSON.Valid {
		rec.HistoryJSON = historyJSON.String
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}
// #endregion scan
