// Package journal keeps a local SQLite log of measurements the station has
// saved. The remote API is the system of record; the journal exists so a
// station can be audited and troubleshot without network access.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one saved measurement as recorded locally. JSON field names
// match the remote API's measurement schema so clients can render both
// interchangeably.
type Entry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"sessionId"`
	PersonID   string    `json:"personId"`
	PersonName string    `json:"personName,omitempty"`
	Weight     float64   `json:"weight"`
	Height     float64   `json:"height"`
	BMI        float64   `json:"bmi"`
	Category   string    `json:"bmiCategory"`
	RemoteID   int64     `json:"remoteId,omitempty"`
	MeasuredAt time.Time `json:"measuredAt"`
	SavedAt    time.Time `json:"savedAt"`
}

// Store is the journal database handle. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS measurements (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			sessionId   TEXT NOT NULL,
			personId    TEXT NOT NULL,
			personName  TEXT NOT NULL DEFAULT '',
			weight      REAL NOT NULL,
			height      REAL NOT NULL,
			bmi         REAL NOT NULL,
			category    TEXT NOT NULL,
			remoteId    INTEGER NOT NULL DEFAULT 0,
			measuredAt  INTEGER NOT NULL,
			savedAt     INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_measurements_person
			ON measurements(personId, savedAt DESC);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one saved measurement.
func (s *Store) Append(e Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO measurements
			(sessionId, personId, personName, weight, height, bmi, category, remoteId, measuredAt, savedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.PersonID, e.PersonName, e.Weight, e.Height, e.BMI,
		e.Category, e.RemoteID, e.MeasuredAt.Unix(), e.SavedAt.Unix())
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, sessionId, personId, personName, weight, height, bmi, category, remoteId, measuredAt, savedAt
		FROM measurements
		ORDER BY savedAt DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ForPerson returns the newest entries for one person, most recent first.
func (s *Store) ForPerson(personID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, sessionId, personId, personName, weight, height, bmi, category, remoteId, measuredAt, savedAt
		FROM measurements
		WHERE personId = ?
		ORDER BY savedAt DESC, id DESC
		LIMIT ?
	`, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal for person: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var measuredAt, savedAt int64
		if err := rows.Scan(&e.ID, &e.SessionID, &e.PersonID, &e.PersonName,
			&e.Weight, &e.Height, &e.BMI, &e.Category, &e.RemoteID,
			&measuredAt, &savedAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.MeasuredAt = time.Unix(measuredAt, 0)
		e.SavedAt = time.Unix(savedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
