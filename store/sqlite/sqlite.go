/*
Package sqlite provides the SQLite-backed hierarchy cache.

PURPOSE:
  Generating a large referral hierarchy is the most expensive stage of a
  run, and both simulation programs can share one. The cache persists a
  generated tree keyed by its generation parameters (total users, max
  depth, seed) so repeat runs skip generation entirely.

CONTRACT:
  The stored form is the stable tabular serialization (user id, sponsor
  id, depth). Loading must reproduce an identical tree - same sponsor
  assignments, same depths, same referral order - which holds because
  rows are written and read in ascending user id and referral lists are
  rebuilt in child-id order.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety across API handlers. SQLite is
  opened in WAL (Write-Ahead Logging) mode so readers don't block.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - hierarchy/types.go: Rows()/FromRows(), the serialization contract
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// insertBatch is how many user rows one INSERT carries. SQLite's default
// variable limit is 999; 4 columns per row keeps us well under it.
const insertBatch = 200

// Store is the SQLite-backed hierarchy cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// CacheKey identifies one cached hierarchy by its generation parameters.
type CacheKey struct {
	TotalUsers int   `json:"total_users"`
	MaxDepth   int   `json:"max_depth"`
	Seed       int64 `json:"seed"`
}

// Info describes a cached hierarchy.
type Info struct {
	ID        int64     `json:"id"`
	Key       CacheKey  `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hierarchies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		total_users INTEGER NOT NULL,
		max_depth INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One cached tree per parameter set; Save replaces.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_hierarchies_key
		ON hierarchies(total_users, max_depth, seed);

	CREATE TABLE IF NOT EXISTS hierarchy_users (
		hierarchy_id INTEGER NOT NULL REFERENCES hierarchies(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL,
		sponsor_id INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		PRIMARY KEY (hierarchy_id, user_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CACHE OPERATIONS
// =============================================================================

// Save persists a tree under the given key, replacing any previous tree
// with the same parameters. Rows are written in one transaction so a
// partially-saved hierarchy can never be loaded.
func (s *Store) Save(ctx context.Context, key CacheKey, t *hierarchy.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM hierarchies WHERE total_users = ? AND max_depth = ? AND seed = ?",
		key.TotalUsers, key.MaxDepth, key.Seed,
	); err != nil {
		return fmt.Errorf("failed to clear previous hierarchy: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO hierarchies (total_users, max_depth, seed, created_at) VALUES (?, ?, ?, ?)",
		key.TotalUsers, key.MaxDepth, key.Seed,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert hierarchy: %w", err)
	}
	hierarchyID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	rows := t.Rows()
	for start := 0; start < len(rows); start += insertBatch {
		end := start + insertBatch
		if end > len(rows) {
			end = len(rows)
		}
		if err := insertUserRows(ctx, tx, hierarchyID, rows[start:end]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertUserRows(ctx context.Context, tx *sql.Tx, hierarchyID int64, rows []hierarchy.Row) error {
	query := "INSERT INTO hierarchy_users (hierarchy_id, user_id, sponsor_id, depth) VALUES "
	args := make([]any, 0, len(rows)*4)
	for i, r := range rows {
		if i > 0 {
			query += ", "
		}
		query += "(?, ?, ?, ?)"
		args = append(args, hierarchyID, r.UserID, r.SponsorID, r.Depth)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert hierarchy rows: %w", err)
	}
	return nil
}

// Load returns the cached tree for the given key, validated, or
// ErrHierarchyNotFound.
func (s *Store) Load(ctx context.Context, key CacheKey) (*hierarchy.Tree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var hierarchyID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM hierarchies WHERE total_users = ? AND max_depth = ? AND seed = ?",
		key.TotalUsers, key.MaxDepth, key.Seed,
	).Scan(&hierarchyID)
	if err == sql.ErrNoRows {
		return nil, sim.ErrHierarchyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up hierarchy: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, sponsor_id, depth FROM hierarchy_users WHERE hierarchy_id = ? ORDER BY user_id ASC",
		hierarchyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load hierarchy rows: %w", err)
	}
	defer rows.Close()

	userRows := make([]hierarchy.Row, 0, key.TotalUsers)
	for rows.Next() {
		var r hierarchy.Row
		if err := rows.Scan(&r.UserID, &r.SponsorID, &r.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan hierarchy row: %w", err)
		}
		userRows = append(userRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// FromRows re-validates, so a corrupted cache aborts the run rather
	// than producing wrong numbers.
	return hierarchy.FromRows(userRows, key.MaxDepth)
}

// Find returns metadata for the cached hierarchy matching the key, or
// ErrHierarchyNotFound.
func (s *Store) Find(ctx context.Context, key CacheKey) (*Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info Info
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, total_users, max_depth, seed, created_at FROM hierarchies WHERE total_users = ? AND max_depth = ? AND seed = ?",
		key.TotalUsers, key.MaxDepth, key.Seed,
	).Scan(&info.ID, &info.Key.TotalUsers, &info.Key.MaxDepth, &info.Key.Seed, &createdAt)
	if err == sql.ErrNoRows {
		return nil, sim.ErrHierarchyNotFound
	}
	if err != nil {
		return nil, err
	}

	info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &info, nil
}

// List returns metadata for every cached hierarchy, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, total_users, max_depth, seed, created_at FROM hierarchies ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var createdAt string
		if err := rows.Scan(&info.ID, &info.Key.TotalUsers, &info.Key.MaxDepth, &info.Key.Seed, &createdAt); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Clear removes every cached hierarchy.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM hierarchy_users"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM hierarchies")
	return err
}
