// Package history journals completed expansions so users can audit and
// replay what fired.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"snipd/internal/logging"
)

// Entry is one recorded expansion.
type Entry struct {
	ID      string
	MatchID int
	Trigger string
	Body    string
	FiredAt time.Time
}

// MatchCount aggregates fire counts per match.
type MatchCount struct {
	MatchID int
	Trigger string
	Count   int
}

// Store journals expansions into a local sqlite database.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open creates (or reuses) the journal under dataDir.
func Open(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, "history.db")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}

	logging.Store("history journal ready: %s", path)
	return s, nil
}

func (s *Store) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS expansions (
		id TEXT PRIMARY KEY,
		match_id INTEGER NOT NULL,
		trigger_text TEXT NOT NULL,
		body TEXT NOT NULL,
		fired_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expansions_fired ON expansions(fired_at DESC);
	CREATE INDEX IF NOT EXISTS idx_expansions_match ON expansions(match_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one expansion to the journal.
func (s *Store) Record(matchID int, trigger, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO expansions (id, match_id, trigger_text, body, fired_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), matchID, trigger, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record expansion: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, match_id, trigger_text, body, fired_at
		FROM expansions ORDER BY fired_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MatchID, &e.Trigger, &e.Body, &e.FiredAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TopMatches returns the most-fired matches.
func (s *Store) TopMatches(limit int) ([]MatchCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT match_id, trigger_text, COUNT(*) AS n
		FROM expansions GROUP BY match_id, trigger_text
		ORDER BY n DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top matches: %w", err)
	}
	defer rows.Close()

	var counts []MatchCount
	for rows.Next() {
		var c MatchCount
		if err := rows.Scan(&c.MatchID, &c.Trigger, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Prune drops entries older than the retention window.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM expansions WHERE fired_at < ?`,
		time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Store("pruned %d history entries", n)
	}
	return n, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
