package cachedb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

// DefaultPath is the SQLite cache database written next to the
// configuration when the sqlite cache backend is selected.
const DefaultPath = ".asanaid.cache.db"

// Store implements ports.CacheStore on SQLite. Save replaces the whole
// snapshot in one transaction, so readers never see a half-written
// counter set.
type Store struct {
	db *sql.DB
}

// Ensure Store implements CacheStore
var _ ports.CacheStore = (*Store)(nil)

// Open creates or opens the cache database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", path, err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS root_counters (
			code      TEXT PRIMARY KEY,
			last_root INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS subtask_counters (
			code        TEXT NOT NULL,
			parent_path TEXT NOT NULL,
			last_child  INTEGER NOT NULL,
			PRIMARY KEY (code, parent_path)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup cache db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads all counters into a cache root.
func (s *Store) Load() (*domain.CacheRoot, error) {
	cache := domain.NewCacheRoot()

	rows, err := s.db.Query(`SELECT code, last_root FROM root_counters`)
	if err != nil {
		return nil, fmt.Errorf("load root counters: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		var lastRoot int
		if err := rows.Scan(&code, &lastRoot); err != nil {
			return nil, err
		}
		cache.Counters(code).LastRoot = lastRoot
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subRows, err := s.db.Query(`SELECT code, parent_path, last_child FROM subtask_counters`)
	if err != nil {
		return nil, fmt.Errorf("load subtask counters: %w", err)
	}
	defer subRows.Close()
	for subRows.Next() {
		var code, parent string
		var lastChild int
		if err := subRows.Scan(&code, &parent, &lastChild); err != nil {
			return nil, err
		}
		cache.Counters(code).Subtasks[parent] = lastChild
	}
	if err := subRows.Err(); err != nil {
		return nil, err
	}

	return cache, nil
}

// Save replaces the persisted snapshot with the given cache.
func (s *Store) Save(cache *domain.CacheRoot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM root_counters`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM subtask_counters`); err != nil {
		return err
	}

	for code, pc := range cache.Projects {
		if _, err := tx.Exec(
			`INSERT INTO root_counters (code, last_root) VALUES (?, ?)`,
			code, pc.LastRoot,
		); err != nil {
			return err
		}
		for parent, lastChild := range pc.Subtasks {
			if _, err := tx.Exec(
				`INSERT INTO subtask_counters (code, parent_path, last_child) VALUES (?, ?, ?)`,
				code, parent, lastChild,
			); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache save: %w", err)
	}
	return nil
}
