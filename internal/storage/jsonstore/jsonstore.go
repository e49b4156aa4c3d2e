package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/idilsaglam/itemboard/internal/model"
	"github.com/idilsaglam/itemboard/internal/storage"
)

// JSON-backed storage. Single file, human-readable, portable.
// One process owns the file; the mutex only covers this process.

// DefaultFileName is used when Open gets an empty path.
const DefaultFileName = "items.json"

// Store keeps every item in one JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ storage.Repository = (*Store)(nil)

// Open returns a store for path, relative to the working directory when
// not absolute. The file is created lazily on first write.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultFileName
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		path = filepath.Join(wd, path)
	}
	return &Store{path: path}, nil
}

// Path returns the absolute file path.
func (s *Store) Path() string { return s.path }

func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) CreateItem(ctx context.Context, name string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, err
	}
	if name == "" {
		return model.Item{}, storage.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return model.Item{}, err
	}
	var maxID int64
	for _, it := range items {
		maxID = max(maxID, it.ID)
	}
	it := model.Item{ID: maxID + 1, Name: name}
	items = append(items, it)
	if err := s.save(items); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// Ping checks that the file, if present, still parses.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.ListItems(ctx)
	return err
}

func (s *Store) Close() error { return nil }

func (s *Store) load() ([]model.Item, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	slices.SortStableFunc(items, func(a, b model.Item) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return items, nil
}

func (s *Store) save(items []model.Item) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
