package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// CitiesKey is the settings key holding the saved card order.
const CitiesKey = "savedTimezones"

// ThemeKey holds "true" when the dark theme is on.
const ThemeKey = "darkTheme"

var (
	// ErrNoSavedState means nothing has been saved under the key yet.
	ErrNoSavedState = errors.New("no saved state")
	// ErrMalformed means the saved value is not a non-empty JSON array of names.
	ErrMalformed = errors.New("malformed saved state")
)

// Setting is one stored key/value pair.
type Setting struct {
	Key       string
	Value     string
	SessionID string
	UpdatedAt time.Time
}

// Store provides access to the local settings database.
type Store struct {
	db        *sql.DB
	sessionID string
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS settings (
	key         TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	session_id  TEXT NOT NULL DEFAULT '',
	updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// New opens the SQLite database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetSession tags subsequent writes with the given session id.
func (s *Store) SetSession(id string) {
	s.sessionID = id
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (*Setting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, value, session_id, updated_at FROM settings WHERE key = ?`, key)

	var st Setting
	var updated string
	err := row.Scan(&st.Key, &st.Value, &st.SessionID, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("query setting %s: %w", key, err)
	}
	st.UpdatedAt = parseTime(updated)
	return &st, nil
}

// Set upserts a value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value, session_id, updated_at) VALUES (?, ?, ?, ?)`,
		key, value, s.sessionID, fmtTime(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// LoadCities returns the saved card order.
func (s *Store) LoadCities(ctx context.Context) ([]string, error) {
	st, err := s.Get(ctx, CitiesKey)
	if err != nil {
		return nil, err
	}
	return DecodeCities(st.Value)
}

// SaveCities stores the card order as a flat JSON array.
func (s *Store) SaveCities(ctx context.Context, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal cities: %w", err)
	}
	if err := s.Set(ctx, CitiesKey, string(data)); err != nil {
		return err
	}
	log.Printf("STORE: saved %d cities", len(names))
	return nil
}

// DecodeCities parses a saved value. Anything other than a non-empty JSON
// array of strings is ErrMalformed.
func DecodeCities(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "null" || trimmed == "undefined" {
		return nil, ErrMalformed
	}
	var names []string
	if err := json.Unmarshal([]byte(trimmed), &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(names) == 0 {
		return nil, ErrMalformed
	}
	return names, nil
}

// LoadDarkTheme reports the saved theme preference and whether one exists.
func (s *Store) LoadDarkTheme(ctx context.Context) (dark bool, ok bool, err error) {
	st, err := s.Get(ctx, ThemeKey)
	if errors.Is(err, ErrNoSavedState) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return st.Value == "true", true, nil
}

// SaveDarkTheme stores the theme preference.
func (s *Store) SaveDarkTheme(ctx context.Context, dark bool) error {
	v := "false"
	if dark {
		v = "true"
	}
	return s.Set(ctx, ThemeKey, v)
}

// fmtTime formats a time as ISO 8601 UTC so SQLite date functions work correctly.
func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

func parseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
