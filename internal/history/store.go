// Package history persists analyses to SQLite so recent lookups and category
// totals survive restarts.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/lox/handscope/poker"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store closed")

// Entry is one recorded analysis.
type Entry struct {
	ID        string                `json:"id"`
	Key       poker.StartingHandKey `json:"key"`
	Cards     [2]poker.Card         `json:"cards"`
	Strength  poker.HandStrength    `json:"strength"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Store is a SQLite-backed analysis history. It is safe for concurrent use;
// Close waits for in-flight operations.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *log.Logger
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	version, err := runMigrations(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger = logger.WithPrefix("history")
	logger.Debug("History store opened", "path", path, "schema_version", version)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record stores one analysis. Recording the same ID twice is an error.
func (s *Store) Record(ctx context.Context, e Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses(id, hand_key, card1, card2, category, value, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		string(e.Key),
		e.Cards[0].ASCII(),
		e.Cards[1].ASCII(),
		int(e.Strength.Category),
		e.Strength.Value,
		e.CreatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record analysis %s: %w", e.ID, err)
	}
	s.logger.Debug("Recorded analysis", "id", e.ID, "key", e.Key)
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		return []Entry{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hand_key, card1, card2, category, value, created_at
		FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent analyses: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e            Entry
			key          string
			card1, card2 string
			category     int
			createdAt    int64
		)
		if err := rows.Scan(&e.ID, &key, &card1, &card2, &category, &e.Strength.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		e.Key = poker.StartingHandKey(key)
		e.Strength.Category = poker.Category(category)
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		if e.Cards[0], err = poker.ParseCard(card1); err != nil {
			return nil, fmt.Errorf("analysis %s: %w", e.ID, err)
		}
		if e.Cards[1], err = poker.ParseCard(card2); err != nil {
			return nil, fmt.Errorf("analysis %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CategoryCounts returns how many recorded analyses fell in each category.
func (s *Store) CategoryCounts(ctx context.Context) (map[poker.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM analyses GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[poker.Category]int, len(poker.Categories))
	for rows.Next() {
		var category, n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[poker.Category(category)] = n
	}
	return counts, rows.Err()
}
