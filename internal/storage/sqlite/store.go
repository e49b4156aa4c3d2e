// Package sqlite provides a SQLite-backed item repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/idilsaglam/itemboard/internal/model"
	"github.com/idilsaglam/itemboard/internal/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS items (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
)`

// Store persists items in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Repository = (*Store)(nil)

// Open opens (or creates) the database at path and ensures the schema.
// ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the database answers a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	var one int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("select 1: %w", err)
	}
	return nil
}

// ListItems returns every item ordered by id.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT id, name FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// CreateItem inserts name and returns the stored row.
func (s *Store) CreateItem(ctx context.Context, name string) (model.Item, error) {
	if s == nil || s.sqlDB == nil {
		return model.Item{}, fmt.Errorf("storage is not configured")
	}
	if name == "" {
		return model.Item{}, storage.ErrEmptyName
	}
	res, err := s.sqlDB.ExecContext(ctx, "INSERT INTO items (name) VALUES (?)", name)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	return model.Item{ID: id, Name: name}, nil
}
