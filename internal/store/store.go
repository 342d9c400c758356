// Package store provides SQLite-backed persistence for LLM response caching
// and the history of analysis runs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// CachedResponse is a stored LLM completion.
type CachedResponse struct {
	Key      string
	Model    string
	Response string
	CachedAt time.Time
}

// Run records the outcome of one command against a repository.
type Run struct {
	ID        string
	Command   string
	Repo      string
	Result    string
	CreatedAt time.Time
}

// Store wraps a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures
// all required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS llm_cache (
			key       TEXT PRIMARY KEY,
			model     TEXT NOT NULL,
			response  TEXT NOT NULL,
			cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id         TEXT PRIMARY KEY,
			command    TEXT NOT NULL,
			repo       TEXT NOT NULL,
			result     TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS runs_command_repo ON runs (command, repo, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// GetCachedResponse retrieves a cached completion by key.
// Returns nil if the key is not cached.
func (s *Store) GetCachedResponse(key string) (*CachedResponse, error) {
	var c CachedResponse
	err := s.db.QueryRow(
		`SELECT key, model, response, cached_at FROM llm_cache WHERE key = ?`, key,
	).Scan(&c.Key, &c.Model, &c.Response, &c.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached response: %w", err)
	}
	return &c, nil
}

// CacheResponse stores a completion. An existing entry is replaced.
func (s *Store) CacheResponse(key, model, response string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO llm_cache (key, model, response, cached_at)
		 VALUES (?, ?, ?, datetime('now'))`,
		key, model, response,
	)
	if err != nil {
		return fmt.Errorf("cache response: %w", err)
	}
	return nil
}

// ClearCache deletes every cached completion and returns how many were removed.
func (s *Store) ClearCache() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM llm_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return res.RowsAffected()
}

// SaveRun records a run and returns it with its generated ID.
func (s *Store) SaveRun(command, repo, result string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Command:   command,
		Repo:      repo,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, command, repo, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Repo, run.Result, run.CreatedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run of command for repo, or nil.
func (s *Store) LatestRun(command, repo string) (*Run, error) {
	var r Run
	err := s.db.QueryRow(
		`SELECT id, command, repo, result, created_at FROM runs
		 WHERE command = ? AND repo = ?
		 ORDER BY created_at DESC LIMIT 1`, command, repo,
	).Scan(&r.ID, &r.Command, &r.Repo, &r.Result, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &r, nil
}

// ListRuns returns up to limit runs for repo, newest first. An empty repo
// lists runs for every repository.
func (s *Store) ListRuns(repo string, limit int) ([]Run, error) {
	query := `SELECT id, command, repo, result, created_at FROM runs`
	var args []any
	if repo != "" {
		query += ` WHERE repo = ?`
		args = append(args, repo)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.Repo, &r.Result, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
